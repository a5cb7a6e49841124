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

package repository

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/monk/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDocument encodes a model the same way the driver would and returns the
// result as an ordered document keyed by bson field names.
func toDocument(model any) (bson.D, error) {
	raw, err := bson.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return doc, nil
}

// copyOnly keeps the fields of model whose bson names are in includedFields.
// Names with no counterpart in the encoded model are ignored.
func copyOnly(model any, includedFields []string) (bson.D, error) {
	doc, err := toDocument(model)
	if err != nil {
		return nil, err
	}
	included := make(map[string]struct{}, len(includedFields))
	for _, f := range includedFields {
		included[f] = struct{}{}
	}
	return copyExcept(doc, func(key string) bool {
		_, ok := included[key]
		return !ok
	}), nil
}

func copyExcept(doc bson.D, excluded func(key string) bool) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if excluded(e.Key) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// attachID writes an identifier assigned on insert back into the model's
// "_id" field when that field is still zero. Models without such a field,
// or with an incompatible field type, are left alone.
func attachID(model any, insertedID any) {
	if insertedID == nil {
		return
	}
	v := reflect.ValueOf(model)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	field, ok := idField(v)
	if !ok || !field.CanSet() || !field.IsZero() {
		return
	}

	id := reflect.ValueOf(insertedID)
	switch {
	case id.Type().AssignableTo(field.Type()):
		field.Set(id)
	case field.Kind() == reflect.String:
		if oid, ok := insertedID.(primitive.ObjectID); ok {
			field.SetString(oid.Hex())
		}
	}
}

func idField(v reflect.Value) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, inline := bsonTagName(sf)
		if inline && sf.Type.Kind() == reflect.Struct {
			if f, ok := idField(v.Field(i)); ok {
				return f, true
			}
			continue
		}
		if name == types.IDField {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func bsonTagName(sf reflect.StructField) (name string, inline bool) {
	tag, ok := sf.Tag.Lookup("bson")
	if !ok {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "inline" {
			inline = true
		}
	}
	return parts[0], inline
}
