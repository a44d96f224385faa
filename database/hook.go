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
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

// QueryRecord is one statement observed by a QueryRecorder.
type QueryRecord struct {
	Operation string        `json:"operation"`
	Query     string        `json:"query"`
	Duration  time.Duration `json:"duration"`
	Err       string        `json:"error,omitempty"`
}

// QueryRecorder is a bun query hook that keeps every executed statement so a
// run can report exactly which SQL it issued. With a writer set it also
// prints each statement, colored by operation.
type QueryRecorder struct {
	mu      sync.Mutex
	records []QueryRecord
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryRecorder)(nil)

// NewQueryRecorder returns a recorder; w may be nil to record silently. A nil
// *QueryRecorder is a valid hook that records nothing.
func NewQueryRecorder(w io.Writer) *QueryRecorder {
	return &QueryRecorder{writer: w}
}

func (h *QueryRecorder) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryRecorder) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if h == nil {
		return
	}
	rec := QueryRecord{
		Operation: event.Operation(),
		Query:     event.Query,
		Duration:  time.Since(event.StartTime),
	}
	if event.Err != nil {
		rec.Err = event.Err.Error()
	}

	h.mu.Lock()
	h.records = append(h.records, rec)
	w := h.writer
	h.mu.Unlock()

	if w == nil {
		return
	}
	args := []interface{}{
		time.Now().Format("2006-01-02 15:04:05.000"),
		color.CyanString("%10s", "[SQL]"),
		fmt.Sprintf("%12s", rec.Duration.Round(time.Microsecond)),
		" ", operationColor(rec.Operation).Sprint(rec.Query),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", color.New(color.BgRed).Sprintf(" %s: %s ", typ, rec.Err))
	}
	_, _ = fmt.Fprintln(w, args...)
}

// Records returns a copy of the statements recorded so far.
func (h *QueryRecorder) Records() []QueryRecord {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]QueryRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Reset forgets all recorded statements.
func (h *QueryRecorder) Reset() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.records = nil
	h.mu.Unlock()
}

func operationColor(operation string) *color.Color {
	switch operation {
	case "SELECT":
		return color.New(color.FgGreen)
	case "INSERT":
		return color.New(color.FgBlue)
	case "UPDATE":
		return color.New(color.FgYellow)
	case "DELETE":
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgRed)
	}
}
