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
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomoncle/monk/database"
	"github.com/tomoncle/monk/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrProviderNotFound is returned when a token has no provider in the module.
var ErrProviderNotFound = errors.New("provider not found")

// Feature binds a model type to the module. Build one with Model.
type Feature struct {
	Definition database.ModelDefinition
	bind       func(m *Module, def database.ModelDefinition)
}

// Model declares T as a stored model. Only the first opts value is used.
func Model[T any](opts ...database.ModelOptions) Feature {
	return Feature{
		Definition: database.Model[T](opts...),
		bind: func(m *Module, def database.ModelDefinition) {
			coll := database.NewCollection[T](m.db.Collection(def.CollectionName()), m.middlewares...)
			m.providers[CollectionToken[T]()] = coll
			m.providers[RepositoryToken[T]()] = repository.NewRepository[T](coll)
		},
	}
}

// RootOptions configures ForRoot.
type RootOptions struct {
	Config      *database.Config
	Models      []Feature
	Middlewares []database.Middleware
}

// AsyncRootOptions configures ForRootAsync. Database yields a single
// connection string or a list of "host:port[/db]" seeds. Config supplies
// the remaining settings and may be nil.
type AsyncRootOptions struct {
	Database    Provider[[]string]
	Options     Provider[database.ClientOptions]
	Config      *database.Config
	Models      []Feature
	Middlewares []database.Middleware
}

// Module holds the providers of a connected database and its collections.
type Module struct {
	mu          sync.RWMutex
	factory     *database.Factory
	db          *mongo.Database
	registry    *database.ModelRegistry
	middlewares []database.Middleware
	providers   map[string]any
	logger      database.Logger
}

// NewModule wraps an already connected database. The registry is frozen and
// used to resolve collection options for features. The caller keeps
// ownership of db.
func NewModule(db *mongo.Database, registry *database.ModelRegistry, middlewares ...database.Middleware) *Module {
	if registry == nil {
		registry = database.NewModelRegistry()
	}
	registry.Freeze()
	return &Module{
		db:          db,
		registry:    registry,
		middlewares: middlewares,
		providers: map[string]any{
			DatabaseToken: db,
			OptionsToken:  database.ClientOptions{},
		},
		logger: database.GetLogger(),
	}
}

// ForRoot connects with opts.Config, prepares the collections of every model
// and returns a module providing them. MONGO_* environment variables override
// a copy of opts.Config; the caller's value is not modified.
func ForRoot(ctx context.Context, opts RootOptions) (*Module, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	cfg := *opts.Config
	if err := database.ApplyEnv(&cfg.ConnectionConfig); err != nil {
		return nil, err
	}
	return open(ctx, &cfg, opts.Models, opts.Middlewares)
}

// ForRootAsync resolves the database and options providers, then behaves
// like ForRoot. Settings are applied in order: opts.Config (or
// DefaultConfig), then MONGO_* environment variables, then the values of the
// Database and Options providers, so an explicit provider always wins.
func ForRootAsync(ctx context.Context, opts AsyncRootOptions) (*Module, error) {
	cfg, err := resolveAsyncConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	return open(ctx, cfg, opts.Models, opts.Middlewares)
}

func resolveAsyncConfig(ctx context.Context, opts AsyncRootOptions) (*database.Config, error) {
	cfg := database.DefaultConfig()
	if opts.Config != nil {
		copied := *opts.Config
		cfg = &copied
	}
	if err := database.ApplyEnv(&cfg.ConnectionConfig); err != nil {
		return nil, err
	}

	seeds, err := opts.Database.Resolve(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", DatabaseToken, err)
	}
	switch len(seeds) {
	case 0:
	case 1:
		cfg.ConnectionConfig.URI = seeds[0]
		cfg.ConnectionConfig.Hosts = nil
	default:
		cfg.ConnectionConfig.URI = ""
		cfg.ConnectionConfig.Hosts = seeds
	}

	clientOpts, err := opts.Options.Resolve(ctx, cfg.ConnectionConfig.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", OptionsToken, err)
	}
	cfg.ConnectionConfig.Options = clientOpts
	return cfg, nil
}

func open(ctx context.Context, cfg *database.Config, features []Feature, middlewares []database.Middleware) (*Module, error) {
	registry := database.NewModelRegistry()
	for _, f := range features {
		if err := registry.Register(f.Definition); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	factory, err := database.OpenResolved(ctx, cfg, registry)
	if err != nil {
		return nil, err
	}

	m := NewModule(factory.GetDatabase(), registry, middlewares...)
	m.factory = factory
	m.providers[OptionsToken] = cfg.ConnectionConfig.Options
	m.mu.Lock()
	for _, f := range features {
		m.bindLocked(f)
	}
	m.mu.Unlock()
	return m, nil
}

// ForFeatures adds collection and repository providers for features not yet
// bound. Collection options come from the registry when the type is
// registered there, otherwise from the feature itself.
func (m *Module) ForFeatures(ctx context.Context, features ...Feature) error {
	if m.db == nil {
		return database.ErrNotConnected
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pending := make([]Feature, 0, len(features))
	defs := make([]database.ModelDefinition, 0, len(features))
	for _, f := range features {
		if _, ok := m.providers[collectionToken(f.Definition.Type)]; ok {
			continue
		}
		def := m.definitionOf(f)
		pending = append(pending, Feature{Definition: def, bind: f.bind})
		defs = append(defs, def)
	}

	if err := database.EnsureCollections(ctx, m.db, defs, m.logger); err != nil {
		return err
	}
	for _, f := range pending {
		m.bindLocked(f)
	}
	return nil
}

func (m *Module) definitionOf(f Feature) database.ModelDefinition {
	if def, ok := m.registry.Lookup(f.Definition.Type); ok {
		return def
	}
	return f.Definition
}

func (m *Module) bindLocked(f Feature) {
	if f.bind == nil {
		return
	}
	f.bind(m, m.definitionOf(f))
}

// Resolve returns the value registered under token.
func (m *Module) Resolve(token string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.providers[token]
	if !ok {
		return nil, fmt.Errorf("%s: %w", token, ErrProviderNotFound)
	}
	return v, nil
}

// Tokens lists every provided token in lexical order.
func (m *Module) Tokens() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tokens := make([]string, 0, len(m.providers))
	for k := range m.providers {
		tokens = append(tokens, k)
	}
	sort.Strings(tokens)
	return tokens
}

func (m *Module) Database() *mongo.Database {
	return m.db
}

func (m *Module) Registry() *database.ModelRegistry {
	return m.registry
}

// Factory returns the factory owning the connection, or nil for modules
// built with NewModule.
func (m *Module) Factory() *database.Factory {
	return m.factory
}

// Close disconnects when the module owns the connection.
func (m *Module) Close(ctx context.Context) error {
	if m.factory == nil {
		return nil
	}
	return m.factory.Close(ctx)
}

// InjectCollection resolves the collection handle provided for T.
func InjectCollection[T any](m *Module) (*database.Collection[T], error) {
	v, err := m.Resolve(CollectionToken[T]())
	if err != nil {
		return nil, err
	}
	coll, ok := v.(*database.Collection[T])
	if !ok {
		return nil, fmt.Errorf("%s: unexpected provider type %T", CollectionToken[T](), v)
	}
	return coll, nil
}

// InjectRepository resolves the repository provided for T.
func InjectRepository[T any](m *Module) (repository.Repository[T], error) {
	v, err := m.Resolve(RepositoryToken[T]())
	if err != nil {
		return nil, err
	}
	repo, ok := v.(repository.Repository[T])
	if !ok {
		return nil, fmt.Errorf("%s: unexpected provider type %T", RepositoryToken[T](), v)
	}
	return repo, nil
}
