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

import "github.com/tomoncle/hookrepro/database"

// Register adds the four tables to r, or to the default registry when r is
// nil. Priorities give the creation order Person, Movie, Animal,
// Person_Movie; tables are dropped in the reverse order.
func Register(r database.ModelRegistry) {
	if r == nil {
		r = database.DefaultRegistry()
	}
	r.Register(database.NewModelAdapter((*Person)(nil), 1,
		database.ForeignKeyConstraint{
			Table:           "Person",
			Column:          "parentId",
			ReferenceTable:  "Person",
			ReferenceColumn: "id",
		},
	))
	r.Register(database.NewModelAdapter((*Movie)(nil), 2))
	r.Register(database.NewModelAdapter((*Animal)(nil), 3,
		database.ForeignKeyConstraint{
			Table:           "Animal",
			Column:          "ownerId",
			ReferenceTable:  "Person",
			ReferenceColumn: "id",
		},
	))
	r.Register(database.NewModelAdapter((*PersonMovie)(nil), 4,
		database.ForeignKeyConstraint{
			Table:           "Person_Movie",
			Column:          "personId",
			ReferenceTable:  "Person",
			ReferenceColumn: "id",
			OnDelete:        "CASCADE",
		},
		database.ForeignKeyConstraint{
			Table:           "Person_Movie",
			Column:          "movieId",
			ReferenceTable:  "Movie",
			ReferenceColumn: "id",
			OnDelete:        "CASCADE",
		},
	))
}
