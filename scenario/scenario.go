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

// Package scenario runs the reproduction: insert a Person through
// insert-and-fetch, look it up again by first name, and check what the
// after-insert hook did to the returned record.
package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/tomoncle/hookrepro/database"
	"github.com/tomoncle/hookrepro/models"
	"github.com/tomoncle/hookrepro/types"
	"github.com/uptrace/bun"
)

// People is the part of the Person service the scenario needs.
type People interface {
	InsertAndFetch(ctx context.Context, model *models.Person) (*models.Person, error)
	FindOne(ctx context.Context, filter *types.QueryFilter) (*models.Person, error)
}

// Options selects the record to insert and whether the deep-equality check
// between the inserted and the fetched record runs.
type Options struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	IsWoman   bool   `yaml:"is_woman"`
	DeepEqual bool   `yaml:"deep_equal"`
}

func DefaultOptions() Options {
	return Options{
		FirstName: "Jennifer",
		LastName:  "Lawrence",
		IsWoman:   true,
	}
}

// Expectation is the outcome of one check.
type Expectation struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Report collects everything one run observed.
type Report struct {
	RunID        uuid.UUID              `json:"run_id"`
	StartedAt    time.Time              `json:"started_at"`
	Duration     time.Duration          `json:"duration"`
	Inserted     *models.Person         `json:"inserted"`
	Fetched      *models.Person         `json:"fetched"`
	HookRecord   *models.Person         `json:"hook_record"`
	Expectations []Expectation          `json:"expectations"`
	Queries      []database.QueryRecord `json:"queries,omitempty"`
}

// Failed returns the expectations that did not hold.
func (r *Report) Failed() []Expectation {
	var failed []Expectation
	for _, e := range r.Expectations {
		if !e.Passed {
			failed = append(failed, e)
		}
	}
	return failed
}

// Passed reports whether every expectation held. A report without
// expectations has not passed.
func (r *Report) Passed() bool {
	return len(r.Expectations) > 0 && len(r.Failed()) == 0
}

// ExpectationError is returned by Run when at least one expectation failed.
type ExpectationError struct {
	Failed []Expectation
	Total  int
}

func (e *ExpectationError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Name
		if f.Detail != "" {
			parts[i] += ": " + f.Detail
		}
	}
	return fmt.Sprintf("%d of %d expectations failed: %s", len(e.Failed), e.Total, strings.Join(parts, "; "))
}

type Runner struct {
	people   People
	logger   database.Logger
	opts     Options
	recorder *database.QueryRecorder
}

// NewRunner returns a runner. logger defaults to the database logger;
// recorder is optional and, when set, its records for the run end up in the
// report.
func NewRunner(people People, logger database.Logger, opts Options, recorder *database.QueryRecorder) *Runner {
	if logger == nil {
		logger = database.GetLogger()
	}
	return &Runner{people: people, logger: logger, opts: opts, recorder: recorder}
}

// Run performs the insert, the lookup and every expectation. Database
// errors stop the run; failed expectations are all evaluated and returned
// together as an *ExpectationError.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.New(), StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()
	if r.recorder != nil {
		r.recorder.Reset()
		defer func() { report.Queries = r.recorder.Records() }()
	}

	capture := &models.InsertCapture{}
	ctx = models.WithInsertCapture(ctx, capture)

	inserted, err := r.people.InsertAndFetch(ctx, &models.Person{
		FirstName: r.opts.FirstName,
		LastName:  r.opts.LastName,
		IsWoman:   r.opts.IsWoman,
	})
	if err != nil {
		return report, fmt.Errorf("insert and fetch: %w", err)
	}
	report.Inserted = inserted
	report.HookRecord = capture.Last()
	r.logger.Debug("Person inserted", "run_id", report.RunID.String(), "id", inserted.ID)

	fetched, err := r.people.FindOne(ctx, types.NewQueryFilter("? = ?", bun.Ident("firstName"), r.opts.FirstName))
	if err != nil {
		return report, fmt.Errorf("find one: %w", err)
	}
	report.Fetched = fetched

	report.Expectations = r.evaluate(report)
	if failed := report.Failed(); len(failed) > 0 {
		return report, &ExpectationError{Failed: failed, Total: len(report.Expectations)}
	}
	return report, nil
}

func (r *Runner) evaluate(report *Report) []Expectation {
	inserted, hook := report.Inserted, report.HookRecord

	same := Expectation{Name: "inserted record is the hook instance", Passed: hook != nil && inserted == hook}
	switch {
	case hook == nil:
		same.Detail = "after-insert hook did not run"
	case !same.Passed:
		same.Detail = fmt.Sprintf("hook saw %s, insert returned %s", hook, inserted)
	}

	foo := Expectation{Name: `foo equals "bar"`, Passed: inserted.Foo == "bar"}
	if !foo.Passed {
		foo.Detail = fmt.Sprintf("foo is %q", inserted.Foo)
	}

	woman := Expectation{Name: "isWoman is false", Passed: !inserted.IsWoman}
	if !woman.Passed {
		woman.Detail = "isWoman is true"
	}

	expectations := []Expectation{same, foo, woman}
	if r.opts.DeepEqual {
		deep := Expectation{Name: "inserted deep-equals fetched", Passed: true}
		if diff := cmp.Diff(report.Inserted, report.Fetched); diff != "" {
			deep.Passed = false
			deep.Detail = "(-inserted +fetched)\n" + diff
		}
		expectations = append(expectations, deep)
	}
	return expectations
}
