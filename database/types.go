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
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Manager defines the operations for managing a MongoDB connection, preparing
// registered collections, and reporting health.
type Manager interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetClient() *mongo.Client
	GetDatabase() *mongo.Database
	EnsureModels(ctx context.Context, registry *ModelRegistry) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// ConfigProvider exposes configuration loading.
type ConfigProvider interface {
	ConfigLoader() *Config
}

// HealthStatus holds the result of a health check against the server.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	InUseConns    int64         `json:"in_use_conns"`
	IdleConns     int64         `json:"idle_conns"`
	MaxPoolSize   uint64        `json:"max_pool_size"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats is a snapshot of the driver's pool and command events.
type DBStats struct {
	MaxPoolSize        uint64        `json:"max_pool_size"`
	OpenConns          int64         `json:"open_conns"`
	InUse              int64         `json:"in_use"`
	Idle               int64         `json:"idle"`
	ConnectionsCreated int64         `json:"connections_created"`
	ConnectionsClosed  int64         `json:"connections_closed"`
	WaitCount          int64         `json:"wait_count"`
	CheckOutFailed     int64         `json:"check_out_failed"`
	PoolCleared        int64         `json:"pool_cleared"`
	Commands           int64         `json:"commands"`
	FailedCommands     int64         `json:"failed_commands"`
	CommandDuration    time.Duration `json:"command_duration"`
}

// ClientOptions carries the driver settings that are passed through to the
// client untouched. Zero values leave the driver default in place.
type ClientOptions struct {
	AppName                string        `yaml:"app_name" env:"APP_NAME"`
	MaxPoolSize            uint64        `yaml:"max_pool_size" env:"MAX_POOL_SIZE"`
	MinPoolSize            uint64        `yaml:"min_pool_size" env:"MIN_POOL_SIZE"`
	MaxConnIdleTime        time.Duration `yaml:"max_conn_idle_time" env:"MAX_CONN_IDLE_TIME"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	SocketTimeout          time.Duration `yaml:"socket_timeout" env:"SOCKET_TIMEOUT"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout" env:"SERVER_SELECTION_TIMEOUT"`
	HeartbeatInterval      time.Duration `yaml:"heartbeat_interval" env:"HEARTBEAT_INTERVAL"`
	LocalThreshold         time.Duration `yaml:"local_threshold" env:"LOCAL_THRESHOLD"`
	ReplicaSet             string        `yaml:"replica_set" env:"REPLICA_SET"`
	Direct                 bool          `yaml:"direct" env:"DIRECT"`
	DisableRetryWrites     bool          `yaml:"disable_retry_writes" env:"DISABLE_RETRY_WRITES"`
	AuthSource             string        `yaml:"auth_source" env:"AUTH_SOURCE"`
	Compressors            []string      `yaml:"compressors" env:"COMPRESSORS" envSeparator:","`

	TLS                           bool   `yaml:"tls" env:"TLS"`
	TLSInsecure                   bool   `yaml:"tls_insecure" env:"TLS_INSECURE"`
	TLSCAFile                     string `yaml:"tls_ca_file" env:"TLS_CA_FILE"`
	TLSCertificateKeyFile         string `yaml:"tls_certificate_key_file" env:"TLS_CERTIFICATE_KEY_FILE"`
	TLSCertificateKeyFilePassword string `yaml:"tls_certificate_key_file_password" env:"TLS_CERTIFICATE_KEY_FILE_PASSWORD"`

	W              string        `yaml:"w" env:"W"` // "majority", a number, or a tag set name
	WTimeout       time.Duration `yaml:"wtimeout" env:"WTIMEOUT"`
	Journal        bool          `yaml:"journal" env:"JOURNAL"`
	ReadPreference string        `yaml:"read_preference" env:"READ_PREFERENCE"`
	ReadConcern    string        `yaml:"read_concern" env:"READ_CONCERN"`
}

// ConnectionConfig describes how to reach a deployment and how the manager
// watches it.
type ConnectionConfig struct {
	// URI is a connection string; "host:port/db" without a scheme is accepted.
	URI string `yaml:"uri" env:"URI"`
	// Hosts lists "host:port[/db]" seeds used when URI is empty.
	Hosts    []string `yaml:"hosts" env:"HOSTS" envSeparator:","`
	Database string   `yaml:"database" env:"DATABASE"`
	Username string   `yaml:"username" env:"USERNAME"`
	Password string   `yaml:"password" env:"PASSWORD"`

	Options ClientOptions `yaml:"options"`

	EnableReconnect     bool          `yaml:"enable_reconnect" env:"ENABLE_RECONNECT"`
	ReconnectInterval   time.Duration `yaml:"reconnect_interval" env:"RECONNECT_INTERVAL"`
	MaxReconnectTries   int           `yaml:"max_reconnect_tries" env:"MAX_RECONNECT_TRIES"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
	EnableQueryLog      bool          `yaml:"enable_query_log" env:"ENABLE_QUERY_LOG"`
	SlowQueryTime       time.Duration `yaml:"slow_query_time" env:"SLOW_QUERY_TIME"`
}

// SeedConfig controls data seeding behavior and environment selection.
type SeedConfig struct {
	AutoSeedOnStartup bool   `yaml:"auto_seed_on_startup" env:"AUTO_SEED_ON_STARTUP"`
	Filepath          string `yaml:"filepath" env:"SEED_FILEPATH"`
	Environment       string `yaml:"environment" env:"SEED_ENVIRONMENT"`
}

// Config aggregates connection and seeding settings.
type Config struct {
	ConnectionConfig ConnectionConfig `yaml:"connection"`
	SeedConfig       SeedConfig       `yaml:"seed"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Options: ClientOptions{
			MaxPoolSize:    100,
			ConnectTimeout: 10 * time.Second,
		},
		EnableReconnect:     true,
		ReconnectInterval:   5 * time.Second,
		MaxReconnectTries:   3,
		HealthCheckInterval: 5 * time.Minute,
		EnableQueryLog:      false,
		SlowQueryTime:       2 * time.Second,
	}
}
