// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPageSize  = 100
	MaxPageSize      = 100
	DefaultPage      = 1
	OrderAscending   = "asc"
	OrderDescending  = "desc"
	headerTotalItems = "X-Pagination-Count-Total"
	headerTotalPages = "X-Pagination-Page-Total"
)

var ErrInvalidPagination = errors.New("invalid pagination parameters")

// Page is a parsed set of pagination query values
type Page struct {
	Count int
	Page  int
	Order string
}

// ParsePage parses the count, page and order query parameters, applying
// defaults and clamping count and page to their bounds
func ParsePage(r *http.Request) (Page, error) {
	params := Page{
		Count: DefaultPageSize,
		Page:  DefaultPage,
		Order: OrderAscending,
	}
	query := r.URL.Query()
	if countParam := query.Get("count"); countParam != "" {
		count, err := strconv.Atoi(countParam)
		if err != nil {
			return Page{}, ErrInvalidPagination
		}
		params.Count = count
	}
	if pageParam := query.Get("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil {
			return Page{}, ErrInvalidPagination
		}
		params.Page = page
	}
	if orderParam := query.Get("order"); orderParam != "" {
		order := strings.ToLower(orderParam)
		switch order {
		case OrderAscending, OrderDescending:
			params.Order = order
		default:
			return Page{}, ErrInvalidPagination
		}
	}
	params.Count = min(max(params.Count, 1), MaxPageSize)
	params.Page = max(params.Page, 1)
	return params, nil
}

// paginate returns the requested page of items and sets the pagination
// headers. items is not modified.
func paginate[T any](w http.ResponseWriter, items []T, params Page) []T {
	total := len(items)
	totalPages := 0
	if total > 0 {
		totalPages = (total + params.Count - 1) / params.Count
	}
	w.Header().Set(headerTotalItems, strconv.Itoa(total))
	w.Header().Set(headerTotalPages, strconv.Itoa(totalPages))
	if params.Order == OrderDescending {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := (params.Page - 1) * params.Count
	if start >= total {
		return []T{}
	}
	end := min(start+params.Count, total)
	return items[start:end]
}
