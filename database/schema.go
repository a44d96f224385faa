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

	"github.com/uptrace/bun"
)

// SchemaBuilder drops and creates the tables of a model registry.
type SchemaBuilder struct {
	db       bun.IDB
	registry ModelRegistry
	logger   Logger
}

// NewSchemaBuilder returns a builder over db. A nil registry means the
// default registry.
func NewSchemaBuilder(db bun.IDB, registry ModelRegistry, logger Logger) *SchemaBuilder {
	if registry == nil {
		registry = defaultRegistry
	}
	return &SchemaBuilder{db: db, registry: registry, logger: logger}
}

// TableName returns the table bun derives for a registered model.
func (b *SchemaBuilder) TableName(model SQLModel) string {
	typ := reflect.TypeOf(model.Instance())
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return b.db.Dialect().Tables().Get(typ).Name
}

// TableNames returns the table names in creation order.
func (b *SchemaBuilder) TableNames() []string {
	models := b.registry.Models()
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = b.TableName(m)
	}
	return names
}

// Validate checks every registered foreign key.
func (b *SchemaBuilder) Validate() error {
	var all []ForeignKeyConstraint
	for _, m := range b.registry.Models() {
		all = append(all, m.ForeignKeys()...)
	}
	if errs := ValidateConstraints(all); len(errs) > 0 {
		return fmt.Errorf("foreign key constraint validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// DropAll drops every registered table that exists, highest priority first
// so referencing tables go before the tables they reference.
func (b *SchemaBuilder) DropAll(ctx context.Context) error {
	models := b.registry.Models()
	for i := len(models) - 1; i >= 0; i-- {
		_, err := b.db.NewDropTable().
			Model(models[i].Instance()).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop table %s: %w", b.TableName(models[i]), err)
		}
	}
	return nil
}

// CreateAll creates every registered table with its foreign keys, lowest
// priority first.
func (b *SchemaBuilder) CreateAll(ctx context.Context) error {
	for _, m := range b.registry.Models() {
		q := b.db.NewCreateTable().Model(m.Instance())
		for _, fk := range m.ForeignKeys() {
			clause, args := fk.Clause()
			q = q.ForeignKey(clause, args...)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %s: %w", b.TableName(m), err)
		}
		if b.logger != nil {
			b.logger.Debug("Table created", "table", b.TableName(m), "foreign_keys", len(m.ForeignKeys()))
		}
	}
	return nil
}

// Recreate validates the constraints, then drops and creates every table.
func (b *SchemaBuilder) Recreate(ctx context.Context) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := b.DropAll(ctx); err != nil {
		return err
	}
	if err := b.CreateAll(ctx); err != nil {
		return err
	}
	if b.logger != nil {
		b.logger.Info("Schema recreated", "tables", b.TableNames())
	}
	return nil
}
