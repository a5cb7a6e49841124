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
	"context"
	"sync"

	"github.com/tomoncle/monk/repository"
	"github.com/tomoncle/monk/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil when absent.
	Get(ctx context.Context, id string) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts a new entity and returns it with its identifier set.
	Save(ctx context.Context, model *T) (*T, error)

	// Update sets the listed fields, or every field when none are listed.
	Update(ctx context.Context, id string, model *T, fields ...string) (*T, error)

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id string) (*types.DeleteResult, error)
}

type baseServiceImpl[T any] struct {
	module *Module
	mu     sync.Mutex
	repo   repository.Repository[T]
}

// NewService returns a default Service implementation using the repository
// the module provides for T. The repository is resolved on first successful use.
func NewService[T any](m *Module) Service[T] {
	return &baseServiceImpl[T]{module: m}
}

// baseRepo caches the repository once the module provides it, so a service
// built before ForFeatures starts working as soon as T is bound.
func (s *baseServiceImpl[T]) baseRepo() (repository.Repository[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		return s.repo, nil
	}
	repo, err := InjectRepository[T](s.module)
	if err != nil {
		return nil, err
	}
	s.repo = repo
	return repo, nil
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id string) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, nil)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Page(ctx, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model *T) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Add(ctx, model)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id string, model *T, fields ...string) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Edit(ctx, id, model, fields...)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id string) (*types.DeleteResult, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Delete(ctx, id)
}
