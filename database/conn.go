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
)

// Open creates a factory from cfg with MONGO_* environment overrides applied
// to a copy, connects, prepares the registered collections and seeds data
// when configured to. The caller owns the returned factory and must Close it.
func Open(ctx context.Context, cfg *Config, registry *ModelRegistry) (*Factory, error) {
	return open(ctx, cfg, registry, (*Factory).CreateFromConfig)
}

// OpenResolved behaves like Open but uses cfg exactly as given. Callers that
// merge the environment themselves, such as ForRootAsync, use it so their own
// values are not overridden again.
func OpenResolved(ctx context.Context, cfg *Config, registry *ModelRegistry) (*Factory, error) {
	return open(ctx, cfg, registry, (*Factory).CreateManager)
}

func open(ctx context.Context, cfg *Config, registry *ModelRegistry, create func(*Factory, *ConnectionConfig) (Manager, error)) (*Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewFactory()
	if _, err := create(factory, &cfg.ConnectionConfig); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx, registry); err != nil {
		_ = factory.Close(context.Background())
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.SeedConfig.AutoSeedOnStartup {
		if _, err := factory.Seed(ctx, cfg.SeedConfig); err != nil {
			_ = factory.Close(context.Background())
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}
	return factory, nil
}
