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

// Package hookrepro reproduces an ORM defect where a Person after-insert hook
// mutates the record handed back by insert-and-fetch.
package hookrepro

import (
	"context"
	"sync"

	"github.com/tomoncle/hookrepro/database"
	"github.com/tomoncle/hookrepro/repository"
	"github.com/tomoncle/hookrepro/types"
	"github.com/uptrace/bun"
)

// Service is the entity facade used by the reproduction and the CLI.
type Service[T any] interface {
	// InsertAndFetch inserts model and returns it filled with the stored row.
	// The returned pointer is model itself.
	InsertAndFetch(ctx context.Context, model *T) (*T, error)

	// FindOne returns the first entity matching filter.
	FindOne(ctx context.Context, filter *types.QueryFilter) (*T, error)

	Get(ctx context.Context, id any) (*T, error)
	All(ctx context.Context) ([]*T, error)
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
	Save(ctx context.Context, model ...*T) error
	Update(ctx context.Context, model *T) error
	Delete(ctx context.Context, id any) error

	// Transaction runs fn with a Service bound to a new transaction. The
	// transaction commits when fn returns nil.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Service[T]) error) error

	// Select returns a select query already bound to the entity model.
	Select() *bun.SelectQuery
}

type service[T any] struct {
	once sync.Once
	repo repository.Repository[T]
}

// NewService returns a Service over the global database. The connection is
// resolved on first use, so InitDB must run before any call.
func NewService[T any]() Service[T] {
	return &service[T]{}
}

// NewServiceWithDB returns a Service bound to db instead of the global one.
func NewServiceWithDB[T any](db bun.IDB) Service[T] {
	return bind[T](repository.NewRepository[T](db))
}

func bind[T any](repo repository.Repository[T]) *service[T] {
	return &service[T]{repo: repo}
}

func (s *service[T]) r() repository.Repository[T] {
	s.once.Do(func() {
		if s.repo == nil {
			s.repo = repository.NewRepository[T](database.GetDB())
		}
	})
	return s.repo
}

func (s *service[T]) InsertAndFetch(ctx context.Context, model *T) (*T, error) {
	return s.r().CreateAndFetch(ctx, model)
}

func (s *service[T]) FindOne(ctx context.Context, filter *types.QueryFilter) (*T, error) {
	return s.r().FindOne(ctx, filter)
}

func (s *service[T]) Get(ctx context.Context, id any) (*T, error) { return s.r().GetOne(ctx, id) }

func (s *service[T]) All(ctx context.Context) ([]*T, error) { return s.r().GetAll(ctx) }

func (s *service[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.r().List(ctx, filter)
}

func (s *service[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.r().Page(ctx, page)
}

func (s *service[T]) Save(ctx context.Context, model ...*T) error { return s.r().Create(ctx, model...) }

func (s *service[T]) Update(ctx context.Context, model *T) error { return s.r().Update(ctx, model) }

func (s *service[T]) Delete(ctx context.Context, id any) error { return s.r().Delete(ctx, id) }

func (s *service[T]) Transaction(ctx context.Context, fn func(ctx context.Context, tx Service[T]) error) error {
	return s.r().RunInTx(ctx, func(ctx context.Context, repo repository.Repository[T]) error {
		return fn(ctx, bind[T](repo))
	})
}

func (s *service[T]) Select() *bun.SelectQuery {
	return s.r().DB().NewSelect().Model((*T)(nil))
}
