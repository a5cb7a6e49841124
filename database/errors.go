/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

type MongoError int

const (
	UnknownErr MongoError = iota
	NoDocumentsErr
	DuplicateKeyErr
	WriteConflictErr
	DocumentValidationErr
	NamespaceNotFoundErr
	NamespaceExistsErr
	IndexConflictErr
	UnauthorizedErr
	TimeoutErr
	NetworkErr
)

func (e MongoError) String() string {
	switch e {
	case NoDocumentsErr:
		return "NoDocuments"
	case DuplicateKeyErr:
		return "DuplicateKey"
	case WriteConflictErr:
		return "WriteConflict"
	case DocumentValidationErr:
		return "DocumentValidation"
	case NamespaceNotFoundErr:
		return "NamespaceNotFound"
	case NamespaceExistsErr:
		return "NamespaceExists"
	case IndexConflictErr:
		return "IndexConflict"
	case UnauthorizedErr:
		return "Unauthorized"
	case TimeoutErr:
		return "Timeout"
	case NetworkErr:
		return "Network"
	default:
		return "Unknown"
	}
}

// IsMongoError reports whether err came from the driver or the server and,
// when it did, which kind of failure it represents.
func IsMongoError(err error) (is bool, mongoErr MongoError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true, NoDocumentsErr
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, DuplicateKeyErr
	}
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true, TimeoutErr
	}
	if mongo.IsNetworkError(err) {
		return true, NetworkErr
	}

	var se mongo.ServerError
	if errors.As(err, &se) {
		switch {
		case se.HasErrorCode(112):
			return true, WriteConflictErr
		case se.HasErrorCode(121):
			return true, DocumentValidationErr
		case se.HasErrorCode(26):
			return true, NamespaceNotFoundErr
		case se.HasErrorCode(48):
			return true, NamespaceExistsErr
		case se.HasErrorCode(85), se.HasErrorCode(86):
			return true, IndexConflictErr
		case se.HasErrorCode(13), se.HasErrorCode(18):
			return true, UnauthorizedErr
		default:
			return true, UnknownErr
		}
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "ns not found") || strings.Contains(s, "namespace not found") {
		return true, NamespaceNotFoundErr
	}
	if strings.Contains(s, "already exists") && strings.Contains(s, "collection") {
		return true, NamespaceExistsErr
	}
	if strings.Contains(s, "index") && (strings.Contains(s, "already exists") || strings.Contains(s, "conflict")) {
		return true, IndexConflictErr
	}
	return false, UnknownErr
}

// duplicateWrites reports how many writes of a bulk insert were rejected when
// every rejection is a duplicate key. Any other failure yields ok == false.
func duplicateWrites(err error) (n int64, ok bool) {
	if is, kind := IsMongoError(err); !is || kind != DuplicateKeyErr {
		return 0, false
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return 0, false
	}
	for _, we := range bwe.WriteErrors {
		switch we.Code {
		case 11000, 11001, 12582:
		default:
			return 0, false
		}
	}
	return int64(len(bwe.WriteErrors)), true
}
