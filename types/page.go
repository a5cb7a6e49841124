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

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// PageRequest describes pagination, an optional query, and ordering.
type PageRequest struct {
	page     int
	pageSize int
	query    any
	orders   []string // "name", "-created_at"
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetQuery() any {
	return p.query
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// GetSort converts the orders into a sort document. A leading "-" sorts
// descending, a leading "+" or nothing sorts ascending.
func (p *PageRequest) GetSort() bson.D {
	if len(p.orders) == 0 {
		return nil
	}
	sort := make(bson.D, 0, len(p.orders))
	for _, order := range p.orders {
		order = strings.TrimSpace(order)
		dir := 1
		switch {
		case strings.HasPrefix(order, "-"):
			dir = -1
			order = order[1:]
		case strings.HasPrefix(order, "+"):
			order = order[1:]
		}
		if order == "" {
			continue
		}
		sort = append(sort, bson.E{Key: order, Value: dir})
	}
	return sort
}

// NewPageRequest constructs a PageRequest with query and order settings.
func NewPageRequest(page int, pageSize int, query any, orders []string) *PageRequest {
	return &PageRequest{page, pageSize, query, orders}
}

// NewPageRequestWithQuery constructs a PageRequest with a query only.
func NewPageRequestWithQuery(page int, pageSize int, query any) *PageRequest {
	return NewPageRequest(page, pageSize, query, make([]string, 0))
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no query or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, make([]string, 0))
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int64
	Items    []*T
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}
