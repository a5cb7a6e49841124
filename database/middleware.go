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

	"github.com/tomoncle/monk/utils"
)

// Call identifies a single collection operation passing through the chain.
type Call struct {
	Collection string
	Method     string
	Filter     interface{}
	Update     interface{}
}

// Handler performs, or forwards, a collection call.
type Handler func(ctx context.Context, call *Call) error

// Middleware wraps a Handler. Middlewares run in the order they are given to
// NewCollection, the first one being outermost.
type Middleware func(next Handler) Handler

func chain(h Handler, middlewares []Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// LoggingMiddleware logs every call at debug level and failed calls at warn.
func LoggingMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) error {
			start := time.Now()
			err := next(ctx, call)
			fields := []interface{}{
				"collection", call.Collection,
				"method", call.Method,
				"duration", utils.Since(start),
			}
			if err != nil {
				logger.Warn("collection call failed", append(fields, "error", err)...)
				return err
			}
			logger.Debug("collection call", fields...)
			return nil
		}
	}
}

// SlowCallMiddleware warns about calls that take longer than threshold.
func SlowCallMiddleware(threshold time.Duration, logger Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) error {
			start := time.Now()
			err := next(ctx, call)
			if d := time.Since(start); d > threshold {
				logger.Warn("slow collection call detected",
					"collection", call.Collection,
					"method", call.Method,
					"duration", d,
					"slow_threshold", threshold,
				)
			}
			return err
		}
	}
}
