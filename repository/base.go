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
	"errors"

	"github.com/tomoncle/monk/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidIdentifier is returned for identifiers that are not 24 hex characters.
var ErrInvalidIdentifier = types.ErrInvalidIdentifier

var errNilModel = errors.New("model cannot be nil")

type baseRepositoryImpl[T any] struct {
	collection Collection[T]
}

// NewRepository returns a generic repository issuing its requests through the
// given collection handle. The handle is not owned by the repository.
func NewRepository[T any](collection Collection[T]) Repository[T] {
	return &baseRepositoryImpl[T]{collection: collection}
}

func (r *baseRepositoryImpl[T]) Collection() Collection[T] { return r.collection }

func (r *baseRepositoryImpl[T]) GetByID(ctx context.Context, id string) (*T, error) {
	oid, err := types.ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.collection.FindOne(ctx, types.IDFilter(oid))
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, query any) ([]*T, error) {
	filter, err := types.ToFilter(query)
	if err != nil {
		return nil, err
	}
	return r.collection.Find(ctx, filter)
}

func (r *baseRepositoryImpl[T]) Add(ctx context.Context, model *T) (*T, error) {
	if model == nil {
		return nil, errNilModel
	}
	insertedID, err := r.collection.Insert(ctx, model)
	if err != nil {
		return nil, err
	}
	attachID(model, insertedID)
	return model, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id string) (*types.DeleteResult, error) {
	oid, err := types.ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.collection.Remove(ctx, types.IDFilter(oid))
}

func (r *baseRepositoryImpl[T]) Edit(ctx context.Context, id string, model *T, fields ...string) (*T, error) {
	oid, err := types.ParseID(id)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, errNilModel
	}

	var payload any = model
	if len(fields) > 0 {
		if payload, err = copyOnly(model, fields); err != nil {
			return nil, err
		}
	}
	return r.collection.FindOneAndUpdate(ctx, types.IDFilter(oid), bson.D{{Key: "$set", Value: payload}})
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, 10)
	}
	filter, err := types.ToFilter(pageRequest.GetQuery())
	if err != nil {
		return nil, err
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := r.collection.Count(ctx, filter)
	if err != nil || total == 0 {
		return pagination, err
	}

	findOptions := options.Find().
		SetSkip(int64(pageRequest.GetOffset())).
		SetLimit(int64(pageRequest.GetPageSize()))
	if sort := pageRequest.GetSort(); len(sort) > 0 {
		findOptions.SetSort(sort)
	}
	items, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}
