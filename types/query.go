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

package types

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDField is the key every stored document is addressed by.
const IDField = "_id"

// ErrInvalidIdentifier is returned when an identifier is not a 24 character
// hex string. It is raised before anything is sent to the server.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ParseID decodes the external hex form of a document key.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q: %v", ErrInvalidIdentifier, id, err)
	}
	return oid, nil
}

// IDFilter returns a filter matching exactly the document with the given key.
func IDFilter(oid primitive.ObjectID) bson.D {
	return bson.D{{Key: IDField, Value: oid}}
}

// QueryFilter is an ordered list of field/value conditions joined by AND.
type QueryFilter struct {
	Fields bson.D
}

// NewQueryFilter builds a filter from alternating key/value arguments:
//
//	NewQueryFilter("name", "Kerry", "age", bson.M{"$gt": 30})
//
// A trailing key without a value is ignored.
func NewQueryFilter(pairs ...interface{}) *QueryFilter {
	f := &QueryFilter{Fields: make(bson.D, 0, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}
		f.Fields = append(f.Fields, bson.E{Key: key, Value: pairs[i+1]})
	}
	return f
}

// And appends a condition and returns the filter for chaining.
func (f *QueryFilter) And(key string, value interface{}) *QueryFilter {
	f.Fields = append(f.Fields, bson.E{Key: key, Value: value})
	return f
}

// ToFilter turns a query into a native filter document. Native documents
// (bson.D, bson.M, maps, structs) pass through untouched; nil matches every
// document; an identifier string or ObjectID selects that one document.
func ToFilter(query any) (any, error) {
	switch q := query.(type) {
	case nil:
		return bson.D{}, nil
	case string:
		oid, err := ParseID(q)
		if err != nil {
			return nil, err
		}
		return IDFilter(oid), nil
	case primitive.ObjectID:
		return IDFilter(q), nil
	case *QueryFilter:
		if q == nil || q.Fields == nil {
			return bson.D{}, nil
		}
		return q.Fields, nil
	case QueryFilter:
		if q.Fields == nil {
			return bson.D{}, nil
		}
		return q.Fields, nil
	default:
		return query, nil
	}
}
