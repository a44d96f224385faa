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
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = newModelRegistry()

// SQLModel represents a table owned by the module. Instance should return a
// typed nil struct pointer compatible with Bun. Priority controls creation
// order (lower first); tables are dropped in the reverse order. ForeignKeys
// lists the constraints created together with the table.
type SQLModel interface {
	Instance() interface{}
	Priority() int
	ForeignKeys() []ForeignKeyConstraint
}

// ModelRegistry stores SQL models and exposes them in a deterministic order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
	Reset()
}

type modelRegistry struct {
	models []SQLModel
	mutex  sync.RWMutex
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{
		models: make([]SQLModel, 0),
	}
}

// NewModelRegistry returns an empty registry independent of the default one.
func NewModelRegistry() ModelRegistry {
	return newModelRegistry()
}

// Register adds model unless a model with the same instance type is already
// present.
func (r *modelRegistry) Register(model SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	typ := reflect.TypeOf(model.Instance())
	for _, m := range r.models {
		if reflect.TypeOf(m.Instance()) == typ {
			return
		}
	}
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

func (r *modelRegistry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = r.models[:0]
}

type ModelAdapter struct {
	instance    interface{}
	priority    int
	foreignKeys []ForeignKeyConstraint
}

// NewModelAdapter wraps a struct instance, priority and foreign keys into an
// SQLModel.
func NewModelAdapter(instance interface{}, priority int, foreignKeys ...ForeignKeyConstraint) SQLModel {
	return &ModelAdapter{
		instance:    instance,
		priority:    priority,
		foreignKeys: foreignKeys,
	}
}

func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

func (a *ModelAdapter) Priority() int {
	return a.priority
}

func (a *ModelAdapter) ForeignKeys() []ForeignKeyConstraint {
	return a.foreignKeys
}

// DefaultRegistry returns the process-wide registry used by InitDB.
func DefaultRegistry() ModelRegistry {
	return defaultRegistry
}

// GetRegisteredModels returns all models registered in the default registry
// sorted by ascending priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModel adds a model to the default registry.
func RegisteredModel(model SQLModel) {
	defaultRegistry.Register(model)
}

// ModelInstances returns the instances of models in registry order.
func ModelInstances(models []SQLModel) []interface{} {
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}
