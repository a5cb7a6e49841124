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
	"context"

	"github.com/tomoncle/monk/types"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the handle a repository issues its requests through. Each
// method maps to exactly one server command.
//
// FindOne and FindOneAndUpdate return (nil, nil) when nothing matches; Find
// returns an empty, non-nil slice in that case.
type Collection[T any] interface {
	Name() string
	FindOne(ctx context.Context, filter any) (*T, error)
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*T, error)
	Count(ctx context.Context, filter any) (int64, error)
	Insert(ctx context.Context, doc *T) (any, error)
	Remove(ctx context.Context, filter any) (*types.DeleteResult, error)
	FindOneAndUpdate(ctx context.Context, filter any, update any) (*T, error)
}

// CrudRepository defines the identifier based operations for a model type.
type CrudRepository[T any] interface {
	// GetByID returns the document with the given hex identifier, or nil.
	GetByID(ctx context.Context, id string) (*T, error)

	// List returns every document matching query, in server order.
	List(ctx context.Context, query any) ([]*T, error)

	// Add inserts model and returns it with the assigned identifier.
	Add(ctx context.Context, model *T) (*T, error)

	// Delete removes the document with the given identifier.
	Delete(ctx context.Context, id string) (*types.DeleteResult, error)

	// Edit applies a $set of model, or of only the named fields of model,
	// and returns the updated document.
	Edit(ctx context.Context, id string, model *T, fields ...string) (*T, error)
}

// PageQueryRepository defines pagination functionality for listing documents.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD and pagination and exposes the collection handle
// for anything else.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	Collection() Collection[T]
}
