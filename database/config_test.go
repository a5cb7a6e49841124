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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
connection:
  uri: mongodb://localhost:27017/app
  options:
    app_name: monk
    max_pool_size: 50
    connect_timeout: 3s
    read_preference: primaryPreferred
  slow_query_time: 500ms
seed:
  auto_seed_on_startup: true
  environment: dev
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	conn := cfg.ConnectionConfig
	assert.Equal(t, "mongodb://localhost:27017/app", conn.URI)
	assert.Equal(t, "monk", conn.Options.AppName)
	assert.Equal(t, uint64(50), conn.Options.MaxPoolSize)
	assert.Equal(t, 3*time.Second, conn.Options.ConnectTimeout)
	assert.Equal(t, "primaryPreferred", conn.Options.ReadPreference)
	assert.Equal(t, 500*time.Millisecond, conn.SlowQueryTime)
	// defaults survive keys the file does not set
	assert.True(t, conn.EnableReconnect)
	assert.Equal(t, 3, conn.MaxReconnectTries)

	assert.True(t, cfg.SeedConfig.AutoSeedOnStartup)
	assert.Equal(t, "dev", cfg.SeedConfig.Environment)
	assert.Equal(t, "configs/seed", cfg.SeedConfig.Filepath)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MONGO_DATABASE", "override")
	t.Setenv("MONGO_MAX_POOL_SIZE", "7")
	t.Setenv("MONGO_HOSTS", "a:27017,b:27017")
	t.Setenv("MONGO_ENABLE_QUERY_LOG", "true")
	t.Setenv("MONGO_SEED_ENVIRONMENT", "staging")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	conn := cfg.ConnectionConfig
	assert.Equal(t, "override", conn.Database)
	assert.Equal(t, uint64(7), conn.Options.MaxPoolSize)
	assert.Equal(t, []string{"a:27017", "b:27017"}, conn.Hosts)
	assert.True(t, conn.EnableQueryLog)
	assert.Equal(t, "monk", conn.Options.AppName)
	assert.Equal(t, "staging", cfg.SeedConfig.Environment)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "connection: [not, a, map"))
	assert.Error(t, err)

	t.Setenv("MONGO_MAX_POOL_SIZE", "many")
	_, err = LoadConfig(writeConfig(t, sampleConfig))
	assert.Error(t, err)
}

func TestFactoryCreateFromConfig(t *testing.T) {
	factory := NewFactory()
	factory.SetLogger(&recordingLogger{})

	_, err := factory.CreateFromConfig(nil)
	assert.Error(t, err)

	_, err = factory.CreateFromConfig(&ConnectionConfig{})
	assert.ErrorIs(t, err, ErrNoConnectionString)

	t.Setenv("MONGO_URI", "mongodb://env-host:27017/envdb")
	cfg := DefaultConnectionConfig()
	manager, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.Same(t, manager, factory.GetManager())
	assert.Equal(t, "mongodb://env-host:27017/envdb", manager.(*defaultManager).config.URI)
	assert.Empty(t, cfg.URI, "the caller's config is not modified")

	assert.Nil(t, factory.GetDatabase())
	status := factory.GetHealthStatus(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, &DBStats{MaxPoolSize: 100}, factory.GetStats())
	assert.NoError(t, factory.Close(context.Background()))
}

func TestFactoryCreateManagerIgnoresEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://env-host:27017/envdb")
	cfg := DefaultConnectionConfig()
	cfg.URI = "mongodb://explicit:27017/app"

	manager, err := NewFactory().CreateManager(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://explicit:27017/app", manager.(*defaultManager).config.URI)
}

func TestFactoryWithoutManager(t *testing.T) {
	factory := NewFactory()

	assert.Error(t, factory.InitializeDatabase(context.Background(), nil))
	assert.False(t, factory.GetHealthStatus(context.Background()).Healthy)
	assert.Equal(t, &DBStats{}, factory.GetStats())
	assert.NoError(t, factory.Close(context.Background()))

	_, err := factory.Seed(context.Background(), SeedConfig{})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestManagerNotConnected(t *testing.T) {
	manager := NewManager(nil)

	assert.ErrorIs(t, manager.Ping(context.Background()), ErrNotConnected)
	assert.Nil(t, manager.GetClient())
	assert.Nil(t, manager.GetDatabase())
	assert.NoError(t, manager.Disconnect(context.Background()))

	status := manager.HealthCheck(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "Database not initialized", status.LastError)
}
