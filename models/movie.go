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

	"github.com/uptrace/bun"
)

type Movie struct {
	bun.BaseModel `bun:"table:Movie,alias:m"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name" json:"name" validate:"required,min=1,max=255"`

	Actors []*Person `bun:"m2m:Person_Movie,join:Movie=Person" json:"actors,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Movie)(nil)

func (m *Movie) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return validateOnWrite(query, "Movie", m)
}

// PersonMovie is the join row between Person and Movie. Both references
// cascade on delete.
type PersonMovie struct {
	bun.BaseModel `bun:"table:Person_Movie,alias:pm"`

	ID       int64   `bun:"id,pk,autoincrement" json:"id"`
	PersonID int64   `bun:"personId" json:"personId"`
	Person   *Person `bun:"rel:belongs-to,join:personId=id" json:"person,omitempty"`
	MovieID  int64   `bun:"movieId" json:"movieId"`
	Movie    *Movie  `bun:"rel:belongs-to,join:movieId=id" json:"movie,omitempty"`
}
