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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Base struct {
	ID primitive.ObjectID `bson:"_id,omitempty"`
}

type embeddedUser struct {
	Base `bson:",inline"`
	Name string `bson:"name"`
}

type stringIDUser struct {
	ID   string `bson:"_id,omitempty"`
	Name string `bson:"name"`
}

type noIDUser struct {
	Name string `bson:"name"`
}

func TestCopyOnly(t *testing.T) {
	user := &stringIDUser{ID: "abc", Name: "Kerry"}

	doc, err := copyOnly(user, []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "name", Value: "Kerry"}}, doc)

	doc, err = copyOnly(user, []string{"nickname"})
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestAttachID(t *testing.T) {
	oid := primitive.NewObjectID()

	inline := &embeddedUser{Name: "Kerry"}
	attachID(inline, oid)
	assert.Equal(t, oid, inline.ID)

	str := &stringIDUser{Name: "Kerry"}
	attachID(str, oid)
	assert.Equal(t, oid.Hex(), str.ID)

	none := &noIDUser{Name: "Kerry"}
	attachID(none, oid)
	assert.Equal(t, &noIDUser{Name: "Kerry"}, none)
}

func TestAttachIDKeepsCallerID(t *testing.T) {
	own := primitive.NewObjectID()
	user := &embeddedUser{Base: Base{ID: own}}
	attachID(user, primitive.NewObjectID())
	assert.Equal(t, own, user.ID)
}
