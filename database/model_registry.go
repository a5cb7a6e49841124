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
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrRegistryFrozen is returned when a model is registered after the registry
// has been handed to a module.
var ErrRegistryFrozen = errors.New("model registry is frozen")

// ModelOptions describes the collection a model type is stored in.
type ModelOptions struct {
	// CollectionName overrides the derived snake_case plural name.
	CollectionName string
	// Indexes are created by EnsureModels.
	Indexes []mongo.IndexModel
	// CollectionOptions runs once against the collection after connect.
	CollectionOptions func(ctx context.Context, coll *mongo.Collection) error
	// Priority orders EnsureModels and seeding; lower values run first.
	Priority int
}

// ModelDefinition binds a Go type to its collection options.
type ModelDefinition struct {
	Type    reflect.Type
	Options ModelOptions
}

// Model builds the definition for T. Only the first opts value is used.
func Model[T any](opts ...ModelOptions) ModelDefinition {
	def := ModelDefinition{Type: TypeOf[T]()}
	if len(opts) > 0 {
		def.Options = opts[0]
	}
	return def
}

// Name returns the Go type name of the model.
func (d ModelDefinition) Name() string {
	return TypeName(d.Type)
}

// CollectionName returns the configured collection name, or the snake_case
// plural of the type name when none is set.
func (d ModelDefinition) CollectionName() string {
	if d.Options.CollectionName != "" {
		return d.Options.CollectionName
	}
	return SnakeCase(d.Name()) + "s"
}

// ModelRegistry stores model definitions and exposes them in a deterministic order.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[reflect.Type]ModelDefinition
	order  []reflect.Type
	frozen bool
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{models: make(map[reflect.Type]ModelDefinition)}
}

// Register adds or replaces a definition. It fails once the registry is frozen.
func (r *ModelRegistry) Register(def ModelDefinition) error {
	if def.Type == nil {
		return fmt.Errorf("model definition has no type")
	}
	def.Type = indirect(def.Type)
	if def.Type.Kind() != reflect.Struct {
		return fmt.Errorf("model %s must be a struct type", def.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %s: %w", def.Name(), ErrRegistryFrozen)
	}
	if _, ok := r.models[def.Type]; !ok {
		r.order = append(r.order, def.Type)
	}
	r.models[def.Type] = def
	return nil
}

// RegisterModel registers T with the given options.
func RegisterModel[T any](r *ModelRegistry, opts ...ModelOptions) error {
	return r.Register(Model[T](opts...))
}

func (r *ModelRegistry) Lookup(t reflect.Type) (ModelDefinition, bool) {
	if t == nil {
		return ModelDefinition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.models[indirect(t)]
	return def, ok
}

func LookupModel[T any](r *ModelRegistry) (ModelDefinition, bool) {
	return r.Lookup(TypeOf[T]())
}

// Models returns all definitions sorted by ascending priority, keeping
// registration order for equal priorities.
func (r *ModelRegistry) Models() []ModelDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ModelDefinition, 0, len(r.order))
	for _, t := range r.order {
		result = append(result, r.models[t])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Options.Priority < result[j].Options.Priority
	})
	return result
}

// Freeze rejects any further registration.
func (r *ModelRegistry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *ModelRegistry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// TypeOf returns the struct type behind T, dereferencing pointers.
func TypeOf[T any]() reflect.Type {
	return indirect(reflect.TypeOf((*T)(nil)).Elem())
}

func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return indirect(t).Name()
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// SnakeCase splits s into words at case changes, letter/digit boundaries and
// non-alphanumeric runes, then joins the lower-cased words with underscores.
// "HTTPServer" becomes "http_server" and "Item2" becomes "item_2".
func SnakeCase(s string) string {
	runes := []rune(s)
	words := make([]string, 0, 4)
	var word []rune

	flush := func() {
		if len(word) > 0 {
			words = append(words, strings.ToLower(string(word)))
			word = word[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(word) > 0 {
			prev := word[len(word)-1]
			switch {
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsUpper(prev) &&
				i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				flush()
			}
		}
		word = append(word, r)
	}
	flush()
	return strings.Join(words, "_")
}
