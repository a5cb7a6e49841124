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
	"fmt"
	"os"

	"github.com/caarlos0/env/v7"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. MONGO_URI.
const EnvPrefix = "MONGO_"

// DefaultConfig returns a Config with DefaultConnectionConfig and seeding off.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig: *DefaultConnectionConfig(),
		SeedConfig: SeedConfig{
			Filepath:    "configs/seed",
			Environment: "prod",
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and applies environment
// overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := ApplyEnv(&cfg.ConnectionConfig); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg.SeedConfig, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse seed environment: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with MONGO_* environment variables that are set.
// Unset variables leave the current value untouched.
func ApplyEnv(cfg *ConnectionConfig) error {
	if err := env.Parse(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse connection environment: %w", err)
	}
	return nil
}
