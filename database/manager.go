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
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var ErrNotConnected = errors.New("database not connected")

type defaultManager struct {
	config          *ConnectionConfig
	client          *mongo.Client
	db              *mongo.Database
	dbName          string
	logger          Logger
	stats           *statsRecorder
	mu              sync.RWMutex
	connected       bool
	lastError       error
	lastHealthCheck time.Time
	healthStatus    *HealthStatus
	reconnectTries  int
	stopHealthCheck context.CancelFunc
	healthDone      chan struct{}
}

// NewManager returns a Manager backed by the official driver. If config is
// nil, DefaultConnectionConfig is used.
func NewManager(config *ConnectionConfig) Manager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultManager{
		config:       config,
		stats:        newStatsRecorder(),
		healthStatus: &HealthStatus{},
	}
}

func (dm *defaultManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if err := dm.connectLocked(ctx); err != nil {
		return err
	}
	if dm.config.HealthCheckInterval > 0 {
		dm.startHealthCheckLocked()
	}
	return nil
}

func (dm *defaultManager) connectLocked(ctx context.Context) error {
	if dm.connected && dm.client != nil {
		return nil
	}

	client, dbName, err := dm.createClient(ctx)
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, dm.connectTimeout())
	defer cancel()

	if err := client.Ping(ctxTimeout, readpref.Primary()); err != nil {
		dm.lastError = err
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.client = client
	dm.dbName = dbName
	dm.db = client.Database(dbName)
	dm.connected = true
	dm.lastError = nil
	dm.reconnectTries = 0

	if dm.logger != nil {
		dm.logger.Info("Database connected successfully", "database", dbName)
	}
	return nil
}

func (dm *defaultManager) createClient(ctx context.Context) (*mongo.Client, string, error) {
	uri, dbName, err := ResolveURI(dm.config)
	if err != nil {
		return nil, "", err
	}
	opts, err := NewClientOptions(dm.config, uri)
	if err != nil {
		return nil, "", err
	}

	hook := newCommandHook(dm.config, dm.logger, dm.stats)
	opts.SetMonitor(hook.Monitor())
	opts.SetPoolMonitor(dm.stats.poolMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	return client, dbName, nil
}

func (dm *defaultManager) connectTimeout() time.Duration {
	if dm.config.Options.ConnectTimeout > 0 {
		return dm.config.Options.ConnectTimeout
	}
	return 30 * time.Second
}

// Disconnect stops the health check loop and closes the client. The loop is
// gone when Disconnect returns unless ctx expires first.
func (dm *defaultManager) Disconnect(ctx context.Context) error {
	dm.mu.Lock()
	done := dm.healthDone
	if dm.stopHealthCheck != nil {
		dm.stopHealthCheck()
		dm.stopHealthCheck = nil
		dm.healthDone = nil
	}
	err := dm.disconnectLocked(ctx)
	dm.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return err
}

func (dm *defaultManager) disconnectLocked(ctx context.Context) error {
	if dm.client == nil {
		return nil
	}

	err := dm.client.Disconnect(ctx)
	dm.client = nil
	dm.db = nil
	dm.connected = false

	if dm.logger != nil {
		if err != nil {
			dm.logger.Error("Failed to close database connection", "error", err)
		} else {
			dm.logger.Info("Database connection closed")
		}
	}
	return err
}

func (dm *defaultManager) Reconnect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if err := dm.reconnectLocked(ctx); err != nil {
		return err
	}
	if dm.config.HealthCheckInterval > 0 {
		dm.startHealthCheckLocked()
	}
	return nil
}

func (dm *defaultManager) reconnectLocked(ctx context.Context) error {
	if dm.logger != nil {
		dm.logger.Info("Attempting to reconnect to the database")
	}

	if err := dm.disconnectLocked(ctx); err != nil {
		if dm.logger != nil {
			dm.logger.Warn("Error disconnecting existing connection", "error", err)
		}
	}

	return dm.connectLocked(ctx)
}

func (dm *defaultManager) Ping(ctx context.Context) error {
	dm.mu.RLock()
	client := dm.client
	dm.mu.RUnlock()

	if client == nil {
		return ErrNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}

func (dm *defaultManager) GetClient() *mongo.Client {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.client
}

func (dm *defaultManager) GetDatabase() *mongo.Database {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     dm.connected,
		MaxPoolSize:   dm.config.Options.MaxPoolSize,
	}

	if dm.client == nil {
		status.Healthy = false
		status.LastError = "Database not initialized"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err := dm.client.Ping(ctxTimeout, readpref.Primary())
	status.ResponseTime = time.Since(start)

	if err != nil {
		status.Healthy = false
		status.Connected = false
		status.LastError = err.Error()
		dm.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		dm.lastError = nil
	}

	stats := dm.stats.snapshot(dm.config.Options.MaxPoolSize)
	status.InUseConns = stats.InUse
	status.IdleConns = stats.Idle

	dm.healthStatus = status
	dm.lastHealthCheck = start
	return status
}

// startHealthCheckLocked starts the health check loop unless one is running.
// Disconnect cancels its context.
func (dm *defaultManager) startHealthCheckLocked() {
	if dm.stopHealthCheck != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	dm.stopHealthCheck = cancel
	dm.healthDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(dm.config.HealthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				checkCtx, checkCancel := context.WithTimeout(ctx, time.Second*10)
				status := dm.HealthCheck(checkCtx)
				checkCancel()
				if !status.Healthy && dm.config.EnableReconnect {
					dm.handleReconnect(ctx)
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}

// handleReconnect runs one reconnect attempt for the loop owning ctx. Once ctx
// is cancelled no attempt is counted or made.
func (dm *defaultManager) handleReconnect(ctx context.Context) {
	dm.mu.Lock()
	if ctx.Err() != nil {
		dm.mu.Unlock()
		return
	}
	if dm.reconnectTries >= dm.config.MaxReconnectTries {
		tries := dm.reconnectTries
		dm.mu.Unlock()
		if dm.logger != nil {
			dm.logger.Error("Max reconnect attempts reached, stopping", "tries", tries)
		}
		return
	}
	dm.reconnectTries++
	try := dm.reconnectTries
	logger := dm.logger
	dm.mu.Unlock()

	if logger != nil {
		logger.Info("Starting database reconnect", "try", try)
	}

	timer := time.NewTimer(dm.config.ReconnectInterval)
	select {
	case <-ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
	}

	connCtx, cancel := context.WithTimeout(ctx, dm.connectTimeout())
	defer cancel()

	dm.mu.Lock()
	if ctx.Err() != nil {
		dm.mu.Unlock()
		return
	}
	err := dm.reconnectLocked(connCtx)
	if err == nil {
		dm.reconnectTries = 0
	}
	dm.mu.Unlock()

	if logger == nil {
		return
	}
	if err != nil {
		logger.Error("Reconnect failed", "error", err, "try", try)
	} else {
		logger.Info("Reconnect succeeded")
	}
}

func (dm *defaultManager) GetStats() *DBStats {
	return dm.stats.snapshot(dm.config.Options.MaxPoolSize)
}

// EnsureModels creates the declared indexes of every registered model and
// runs its CollectionOptions hook, in priority order.
func (dm *defaultManager) EnsureModels(ctx context.Context, registry *ModelRegistry) error {
	db := dm.GetDatabase()
	if db == nil {
		return ErrNotConnected
	}
	if registry == nil {
		return nil
	}
	return EnsureCollections(ctx, db, registry.Models(), dm.logger)
}

// EnsureCollections creates the declared indexes of each definition and runs
// its CollectionOptions hook.
func EnsureCollections(ctx context.Context, db *mongo.Database, models []ModelDefinition, logger Logger) error {
	for _, def := range models {
		name := def.CollectionName()
		coll := db.Collection(name)

		if len(def.Options.Indexes) > 0 {
			created, err := coll.Indexes().CreateMany(ctx, def.Options.Indexes)
			if err != nil {
				return fmt.Errorf("failed to create indexes for %s: %w", name, err)
			}
			if logger != nil {
				logger.Debug("Indexes ensured", "collection", name, "indexes", created)
			}
		}
		if def.Options.CollectionOptions != nil {
			if err := def.Options.CollectionOptions(ctx, coll); err != nil {
				return fmt.Errorf("failed to apply collection options for %s: %w", name, err)
			}
		}
	}
	return nil
}

func (dm *defaultManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
