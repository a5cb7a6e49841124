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

import "context"

// Provider supplies a value directly or computes it with a factory when the
// module is built.
type Provider[T any] struct {
	value   T
	factory func(ctx context.Context) (T, error)
	set     bool
}

// UseValue returns a provider of v.
func UseValue[T any](v T) Provider[T] {
	return Provider[T]{value: v, set: true}
}

// UseFactory returns a provider that calls f once per resolution.
func UseFactory[T any](f func(ctx context.Context) (T, error)) Provider[T] {
	return Provider[T]{factory: f, set: f != nil}
}

// IsSet reports whether the provider was configured.
func (p Provider[T]) IsSet() bool {
	return p.set
}

// Resolve returns the provided value. An unset provider yields def.
func (p Provider[T]) Resolve(ctx context.Context, def T) (T, error) {
	switch {
	case p.factory != nil:
		return p.factory(ctx)
	case p.set:
		return p.value, nil
	default:
		return def, nil
	}
}
