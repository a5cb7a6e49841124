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
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Factory creates and manages a configured Manager and provides helpers for
// initialization, seeding, health checks, and statistics.
type Factory struct {
	manager Manager
	logger  Logger
}

// NewFactory returns a new factory using the package logger.
func NewFactory() *Factory {
	return &Factory{
		logger: GetLogger(),
	}
}

// CreateFromConfig constructs a manager from a copy of cfg with environment
// overrides applied. cfg itself is left untouched.
func (f *Factory) CreateFromConfig(cfg *ConnectionConfig) (Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	copied := *cfg
	if err := ApplyEnv(&copied); err != nil {
		return nil, err
	}
	return f.CreateManager(&copied)
}

// CreateManager constructs a manager from cfg as given, without reading the
// environment.
func (f *Factory) CreateManager(cfg *ConnectionConfig) (Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if _, _, err := ResolveURI(cfg); err != nil {
		return nil, err
	}

	manager := NewManager(cfg)
	manager.SetLogger(f.logger)

	f.manager = manager
	return manager, nil
}

// InitializeDatabase connects and prepares the collections of every model in
// registry.
func (f *Factory) InitializeDatabase(ctx context.Context, registry *ModelRegistry) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}

	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := f.manager.EnsureModels(ctx, registry); err != nil {
		return fmt.Errorf("failed to prepare collections: %w", err)
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// Seed loads the seed files described by cfg into the connected database.
func (f *Factory) Seed(ctx context.Context, cfg SeedConfig) ([]ExecutionResult, error) {
	db := f.GetDatabase()
	if db == nil {
		return nil, ErrNotConnected
	}
	seeder := NewSeeder(db, cfg.Environment)
	seeder.SetLogger(f.logger)
	if cfg.Filepath != "" {
		seeder.SetRootPath(cfg.Filepath)
	}
	err := seeder.Run(ctx)
	return seeder.History(), err
}

func (f *Factory) GetManager() Manager {
	return f.manager
}

// GetDatabase returns the connected database, or nil if not initialized.
func (f *Factory) GetDatabase() *mongo.Database {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDatabase()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *Factory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

func (f *Factory) Close(ctx context.Context) error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect(ctx)
}

func (f *Factory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

func (f *Factory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
