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

package models

import (
	"context"
	"sync"
)

// InsertCapture collects the Person instances the after-insert hook saw
// while a context carrying it was in use.
type InsertCapture struct {
	mu      sync.Mutex
	records []*Person
}

type insertCaptureKey struct{}

// WithInsertCapture returns a context whose inserts report to c.
func WithInsertCapture(ctx context.Context, c *InsertCapture) context.Context {
	return context.WithValue(ctx, insertCaptureKey{}, c)
}

// InsertCaptureFrom returns the capture carried by ctx, or nil.
func InsertCaptureFrom(ctx context.Context) *InsertCapture {
	c, _ := ctx.Value(insertCaptureKey{}).(*InsertCapture)
	return c
}

// Add records p as seen by an after-insert hook.
func (c *InsertCapture) Add(p *Person) {
	c.mu.Lock()
	c.records = append(c.records, p)
	c.mu.Unlock()
}

// Last returns the most recent captured instance, or nil.
func (c *InsertCapture) Last() *Person {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return nil
	}
	return c.records[len(c.records)-1]
}

func (c *InsertCapture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
