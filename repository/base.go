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
	"database/sql"
	"fmt"

	"github.com/tomoncle/hookrepro/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type bunRepository[T any] struct {
	db bun.IDB
}

// NewRepository returns a generic repository over db. Passing a bun.Tx is
// equivalent to calling WithTx on a repository built from the database.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return &bunRepository[T]{db: db}
}

func (r *bunRepository[T]) DB() bun.IDB { return r.db }

func (r *bunRepository[T]) WithTx(tx bun.Tx) Repository[T] {
	return &bunRepository[T]{db: tx}
}

func (r *bunRepository[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T]) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, r.WithTx(tx))
	})
}

func filtered(q *bun.SelectQuery, filter *types.QueryFilter) *bun.SelectQuery {
	if filter == nil {
		return q
	}
	return q.Where(filter.Schema, filter.Args...)
}

func (r *bunRepository[T]) GetOne(ctx context.Context, id any) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().Model(entity).Where("? = ?", bun.Ident("id"), id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *bunRepository[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.List(ctx, nil)
}

func (r *bunRepository[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	var entities []*T
	err := filtered(r.db.NewSelect().Model(&entities), filter).Scan(ctx)
	return entities, err
}

func (r *bunRepository[T]) FindOne(ctx context.Context, filter *types.QueryFilter) (*T, error) {
	entity := new(T)
	if err := filtered(r.db.NewSelect().Model(entity), filter).Limit(1).Scan(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *bunRepository[T]) Query(ctx context.Context, where string, args ...interface{}) ([]*T, error) {
	return r.List(ctx, types.NewQueryFilter(where, args...))
}

func (r *bunRepository[T]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error) {
	var entities []*T
	query := filtered(r.db.NewSelect().Model(&entities), req.GetFilter())
	page := types.NewDefaultPagination[T](req)

	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return page, err
	}
	err = query.
		Order(req.GetOrders()...).
		Offset(req.GetOffset()).
		Limit(req.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	page.Total = total
	page.Items = entities
	return page, nil
}

func (r *bunRepository[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().Model(&entity).Exec(ctx)
	return err
}

// CreateAndFetch uses INSERT ... RETURNING * where the dialect has it, so the
// stored row is scanned into entity before the after-insert hooks run; the
// hooks find entity as the query model value. Dialects without RETURNING
// (MySQL) reload the row by primary key after the insert, which overwrites
// any persisted column a hook changed.
func (r *bunRepository[T]) CreateAndFetch(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, fmt.Errorf("entity cannot be nil")
	}
	insert := r.db.NewInsert().Model(entity)
	if r.db.Dialect().Features().Has(feature.InsertReturning) {
		if _, err := insert.Returning("*").Exec(ctx); err != nil {
			return nil, err
		}
		return entity, nil
	}
	if _, err := insert.Exec(ctx); err != nil {
		return nil, err
	}
	if err := r.db.NewSelect().Model(entity).WherePK().Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to reload inserted row: %w", err)
	}
	return entity, nil
}

func (r *bunRepository[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *bunRepository[T]) Delete(ctx context.Context, id any) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("? = ?", bun.Ident("id"), id).Exec(ctx)
	return err
}
