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

package repository

import (
	"context"

	"github.com/tomoncle/hookrepro/types"
	"github.com/uptrace/bun"
)

// Reader loads entities of type T.
type Reader[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)
	GetAll(ctx context.Context) ([]*T, error)
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// FindOne returns the first entity matching filter, or sql.ErrNoRows.
	FindOne(ctx context.Context, filter *types.QueryFilter) (*T, error)

	Query(ctx context.Context, where string, args ...interface{}) ([]*T, error)
	Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error)
}

// Writer stores entities of type T.
type Writer[T any] interface {
	Create(ctx context.Context, entity ...*T) error

	// CreateAndFetch inserts entity and fills it with the row as stored,
	// returning the same pointer. After-insert hooks reach that pointer
	// through query.GetModel().Value().
	CreateAndFetch(ctx context.Context, entity *T) (*T, error)

	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id any) error
}

// Repository reads and writes T through a bun.IDB, which is either the
// database itself or an open transaction.
type Repository[T any] interface {
	Reader[T]
	Writer[T]

	// WithTx returns a repository whose statements run inside tx.
	WithTx(tx bun.Tx) Repository[T]

	// RunInTx runs fn in a transaction committed when fn returns nil.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T]) error) error

	// DB exposes the underlying handle for queries the repository lacks.
	DB() bun.IDB
}
