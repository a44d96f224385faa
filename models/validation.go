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
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/bun"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError reports the field rules a record broke before it was
// written to Table.
type ValidationError struct {
	Table string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed: %v", e.Table, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Fields lists the JSON names of the fields that failed.
func (e *ValidationError) Fields() []string {
	var verrs validator.ValidationErrors
	if !errors.As(e.Err, &verrs) {
		return nil
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field()
	}
	return fields
}

// Validate checks a record against its validate tags.
func Validate(table string, record interface{}) error {
	if err := validate.Struct(record); err != nil {
		return &ValidationError{Table: table, Err: err}
	}
	return nil
}

// inserts and updates are validated, reads and deletes are not
func validateOnWrite(query bun.Query, table string, record interface{}) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		return Validate(table, record)
	}
	return nil
}
