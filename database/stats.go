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
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

// statsRecorder counts driver pool and command events.
type statsRecorder struct {
	open           atomic.Int64
	inUse          atomic.Int64
	created        atomic.Int64
	closed         atomic.Int64
	waitCount      atomic.Int64
	checkOutFailed atomic.Int64
	cleared        atomic.Int64
	commands       atomic.Int64
	failed         atomic.Int64
	commandNanos   atomic.Int64
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{}
}

func (s *statsRecorder) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{Event: s.handlePoolEvent}
}

func (s *statsRecorder) handlePoolEvent(evt *event.PoolEvent) {
	switch evt.Type {
	case event.ConnectionCreated:
		s.created.Add(1)
		s.open.Add(1)
	case event.ConnectionClosed:
		s.closed.Add(1)
		s.open.Add(-1)
	case event.GetStarted:
		s.waitCount.Add(1)
	case event.GetSucceeded:
		s.inUse.Add(1)
	case event.GetFailed:
		s.checkOutFailed.Add(1)
	case event.ConnectionReturned:
		s.inUse.Add(-1)
	case event.PoolCleared:
		s.cleared.Add(1)
	}
}

func (s *statsRecorder) recordCommand(d time.Duration, failed bool) {
	s.commands.Add(1)
	s.commandNanos.Add(int64(d))
	if failed {
		s.failed.Add(1)
	}
}

func (s *statsRecorder) snapshot(maxPoolSize uint64) *DBStats {
	open := s.open.Load()
	inUse := s.inUse.Load()
	idle := open - inUse
	if idle < 0 {
		idle = 0
	}
	return &DBStats{
		MaxPoolSize:        maxPoolSize,
		OpenConns:          open,
		InUse:              inUse,
		Idle:               idle,
		ConnectionsCreated: s.created.Load(),
		ConnectionsClosed:  s.closed.Load(),
		WaitCount:          s.waitCount.Load(),
		CheckOutFailed:     s.checkOutFailed.Load(),
		PoolCleared:        s.cleared.Load(),
		Commands:           s.commands.Load(),
		FailedCommands:     s.failed.Load(),
		CommandDuration:    time.Duration(s.commandNanos.Load()),
	}
}
