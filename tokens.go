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

package monk

import (
	"reflect"
	"strings"

	"github.com/tomoncle/monk/database"
)

const (
	// DatabaseToken resolves to the connected *mongo.Database.
	DatabaseToken = "MONK_DATABASE"
	// OptionsToken resolves to the database.ClientOptions the module was built with.
	OptionsToken = "MONK_OPTIONS"
)

// CollectionToken names the provider of the *database.Collection[T] for T.
func CollectionToken[T any]() string {
	return collectionToken(database.TypeOf[T]())
}

// RepositoryToken names the provider of the repository.Repository[T] for T.
func RepositoryToken[T any]() string {
	return repositoryToken(database.TypeOf[T]())
}

func collectionToken(t reflect.Type) string {
	return strings.ToUpper("COLLECTION_" + database.TypeName(t))
}

func repositoryToken(t reflect.Type) string {
	return strings.ToUpper("REPOSITORY_" + database.TypeName(t))
}
