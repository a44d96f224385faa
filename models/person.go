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
	"fmt"

	"github.com/tomoncle/hookrepro/database"
	"github.com/uptrace/bun"
)

// Person is the record whose after-insert hook is under test. Foo is never
// persisted; only the hook sets it.
type Person struct {
	bun.BaseModel `bun:"table:Person,alias:p"`

	ID        int64    `bun:"id,pk,autoincrement" json:"id"`
	ParentID  *int64   `bun:"parentId" json:"parentId"`
	FirstName string   `bun:"firstName" json:"firstName" validate:"required,min=1,max=255"`
	LastName  string   `bun:"lastName" json:"lastName" validate:"required,min=1,max=255"`
	Age       *int     `bun:"age" json:"age,omitempty"`
	Address   *Address `bun:"address,type:text" json:"address,omitempty"`
	IsWoman   bool     `bun:"isWoman" json:"isWoman"`
	Foo       string   `bun:"-" json:"foo,omitempty"`

	Parent   *Person   `bun:"rel:belongs-to,join:parentId=id" json:"parent,omitempty"`
	Children []*Person `bun:"rel:has-many,join:id=parentId" json:"children,omitempty"`
	Pets     []*Animal `bun:"rel:has-many,join:id=ownerId" json:"pets,omitempty"`
	Movies   []*Movie  `bun:"m2m:Person_Movie,join:Person=Movie" json:"movies,omitempty"`
}

var (
	_ bun.BeforeAppendModelHook = (*Person)(nil)
	_ bun.AfterInsertHook       = (*Person)(nil)
)

func (p *Person) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return validateOnWrite(query, "Person", p)
}

// AfterInsert is invoked by bun on a zero Person, so the inserted records are
// taken from the query model. Each one is handed to the capture in ctx,
// logged, then gets Foo set and IsWoman cleared: the very records the caller
// holds, after RETURNING has been scanned into them.
func (*Person) AfterInsert(ctx context.Context, query *bun.InsertQuery) error {
	capture := InsertCaptureFrom(ctx)
	for _, rec := range insertedPeople(query) {
		if capture != nil {
			capture.Add(rec)
		}
		database.GetLogger().Info("Person after insert", "record", rec.String())
		rec.Foo = "bar"
		rec.IsWoman = false
	}
	return nil
}

func insertedPeople(query *bun.InsertQuery) []*Person {
	if query == nil {
		return nil
	}
	model := query.GetModel()
	if model == nil {
		return nil
	}
	switch v := model.Value().(type) {
	case *Person:
		return []*Person{v}
	case *[]*Person:
		return *v
	case *[]Person:
		out := make([]*Person, len(*v))
		for i := range *v {
			out[i] = &(*v)[i]
		}
		return out
	}
	return nil
}

func (p *Person) String() string {
	if p == nil {
		return "Person<nil>"
	}
	parent := "null"
	if p.ParentID != nil {
		parent = fmt.Sprint(*p.ParentID)
	}
	return fmt.Sprintf("Person{id: %d, parentId: %s, firstName: %q, lastName: %q, isWoman: %t}",
		p.ID, parent, p.FirstName, p.LastName, p.IsWoman)
}
