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

package types

// DefaultPageSize is used when a request asks for fewer than one row.
const DefaultPageSize = 10

// QueryFilter is a WHERE clause in bun placeholder syntax with its args.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{Schema: schema, Args: args}
}

// PageRequest selects one page of a listing. Pages are numbered from 1.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string
}

// NewPageRequest returns a request for page of pageSize rows, without filter
// or ordering.
func NewPageRequest(page int, pageSize int) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize}
}

// Where narrows the listing to rows matching filter.
func (p *PageRequest) Where(filter *QueryFilter) *PageRequest {
	p.filter = filter
	return p
}

// OrderBy appends ORDER BY terms such as "firstName DESC". Each term is a
// column name, quoted by bun, optionally followed by ASC or DESC.
func (p *PageRequest) OrderBy(orders ...string) *PageRequest {
	p.orders = append(p.orders, orders...)
	return p
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter { return p.filter }

func (p *PageRequest) GetOrders() []string { return p.orders }

// Pagination is one page of T together with the total row count.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// Pages returns the number of pages needed for Total items.
func (p *Pagination[T]) Pages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// NewDefaultPagination returns an empty page for req.
func NewDefaultPagination[T any](req *PageRequest) *Pagination[T] {
	return &Pagination[T]{Page: req.GetPage(), PageSize: req.GetPageSize(), Items: make([]*T, 0)}
}
