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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableConfig points at a closed local port so every ping fails fast.
func unreachableConfig() *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.URI = "mongodb://127.0.0.1:1/monk"
	cfg.Options.ConnectTimeout = 50 * time.Millisecond
	cfg.Options.ServerSelectionTimeout = 50 * time.Millisecond
	cfg.HealthCheckInterval = 10 * time.Millisecond
	cfg.ReconnectInterval = 20 * time.Millisecond
	cfg.MaxReconnectTries = 1000
	return cfg
}

func (dm *defaultManager) tries() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.reconnectTries
}

func TestConnectFailureStartsNoHealthCheck(t *testing.T) {
	dm := NewManager(unreachableConfig()).(*defaultManager)

	err := dm.Connect(context.Background())
	require.Error(t, err)

	dm.mu.RLock()
	assert.Nil(t, dm.stopHealthCheck)
	assert.Nil(t, dm.client)
	assert.Error(t, dm.lastError)
	dm.mu.RUnlock()
}

func TestHealthCheckStopsOnDisconnect(t *testing.T) {
	dm := NewManager(unreachableConfig()).(*defaultManager)
	dm.mu.Lock()
	dm.startHealthCheckLocked()
	done := dm.healthDone
	dm.mu.Unlock()

	require.Eventually(t, func() bool { return dm.tries() >= 2 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, dm.Disconnect(context.Background()))
	select {
	case <-done:
	default:
		t.Fatal("health check loop still running after Disconnect")
	}

	after := dm.tries()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, after, dm.tries())
	assert.Nil(t, dm.GetClient())
	assert.False(t, dm.HealthCheck(context.Background()).Connected)
}

func TestHealthCheckStopsAtMaxReconnectTries(t *testing.T) {
	cfg := unreachableConfig()
	cfg.MaxReconnectTries = 2
	dm := NewManager(cfg).(*defaultManager)
	dm.mu.Lock()
	dm.startHealthCheckLocked()
	dm.mu.Unlock()
	defer dm.Disconnect(context.Background())

	require.Eventually(t, func() bool { return dm.tries() == 2 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 2, dm.tries())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	dm := NewManager(unreachableConfig()).(*defaultManager)
	dm.mu.Lock()
	dm.startHealthCheckLocked()
	dm.mu.Unlock()

	require.NoError(t, dm.Disconnect(context.Background()))
	require.NoError(t, dm.Disconnect(context.Background()))
	assert.ErrorIs(t, dm.Ping(context.Background()), ErrNotConnected)
}
