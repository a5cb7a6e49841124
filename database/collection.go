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
	"fmt"

	"github.com/tomoncle/monk/types"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDeserialization wraps failures to decode a stored document into the
// model type.
var ErrDeserialization = errors.New("failed to deserialize document")

const (
	MethodFindOne          = "findOne"
	MethodFind             = "find"
	MethodCount            = "count"
	MethodInsert           = "insert"
	MethodRemove           = "remove"
	MethodFindOneAndUpdate = "findOneAndUpdate"
)

// Collection is a typed handle over a driver collection. Every call runs
// through the configured middleware chain. It is safe for concurrent use.
type Collection[T any] struct {
	coll        *mongo.Collection
	middlewares []Middleware
}

func NewCollection[T any](coll *mongo.Collection, middlewares ...Middleware) *Collection[T] {
	return &Collection[T]{coll: coll, middlewares: middlewares}
}

func (c *Collection[T]) Name() string {
	return c.coll.Name()
}

// Raw returns the underlying driver collection.
func (c *Collection[T]) Raw() *mongo.Collection {
	return c.coll
}

func (c *Collection[T]) invoke(ctx context.Context, call *Call, op func(ctx context.Context) error) error {
	call.Collection = c.coll.Name()
	h := chain(func(ctx context.Context, _ *Call) error { return op(ctx) }, c.middlewares)
	return h(ctx, call)
}

// FindOne returns the first matching document, or nil when nothing matches.
func (c *Collection[T]) FindOne(ctx context.Context, filter any) (*T, error) {
	var out *T
	err := c.invoke(ctx, &Call{Method: MethodFindOne, Filter: filter}, func(ctx context.Context) error {
		var err error
		out, err = decodeSingle[T](c.coll.FindOne(ctx, filter))
		return err
	})
	return out, err
}

// Find returns every matching document. It never returns a nil slice on success.
func (c *Collection[T]) Find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*T, error) {
	var out []*T
	err := c.invoke(ctx, &Call{Method: MethodFind, Filter: filter}, func(ctx context.Context) error {
		cur, err := c.coll.Find(ctx, filter, opts...)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		items := make([]*T, 0)
		for cur.Next(ctx) {
			var doc T
			if err := cur.Decode(&doc); err != nil {
				return fmt.Errorf("%w: %w", ErrDeserialization, err)
			}
			items = append(items, &doc)
		}
		if err := cur.Err(); err != nil {
			return err
		}
		out = items
		return nil
	})
	return out, err
}

func (c *Collection[T]) Count(ctx context.Context, filter any) (int64, error) {
	var n int64
	err := c.invoke(ctx, &Call{Method: MethodCount, Filter: filter}, func(ctx context.Context) error {
		var err error
		n, err = c.coll.CountDocuments(ctx, filter)
		return err
	})
	return n, err
}

// Insert stores doc and returns the identifier assigned to it.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) (any, error) {
	var id any
	err := c.invoke(ctx, &Call{Method: MethodInsert}, func(ctx context.Context) error {
		res, err := c.coll.InsertOne(ctx, doc)
		if err != nil {
			return err
		}
		id = res.InsertedID
		return nil
	})
	return id, err
}

// Remove deletes every matching document and reports how many were removed.
func (c *Collection[T]) Remove(ctx context.Context, filter any) (*types.DeleteResult, error) {
	var out *types.DeleteResult
	err := c.invoke(ctx, &Call{Method: MethodRemove, Filter: filter}, func(ctx context.Context) error {
		res, err := c.coll.DeleteMany(ctx, filter)
		if err != nil {
			return err
		}
		out = types.NewDeleteResult(res.DeletedCount)
		return nil
	})
	return out, err
}

// FindOneAndUpdate applies update to the first match and returns the updated
// document, or nil when nothing matches.
func (c *Collection[T]) FindOneAndUpdate(ctx context.Context, filter any, update any) (*T, error) {
	var out *T
	err := c.invoke(ctx, &Call{Method: MethodFindOneAndUpdate, Filter: filter, Update: update}, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var err error
		out, err = decodeSingle[T](c.coll.FindOneAndUpdate(ctx, filter, update, opts))
		return err
	})
	return out, err
}

func decodeSingle[T any](res *mongo.SingleResult) (*T, error) {
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	var doc T
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	return &doc, nil
}
