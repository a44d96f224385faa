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

type Animal struct {
	bun.BaseModel `bun:"table:Animal,alias:a"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	OwnerID *int64 `bun:"ownerId" json:"ownerId"`
	Name    string `bun:"name" json:"name" validate:"required,min=1,max=255"`
	Species string `bun:"species" json:"species,omitempty" validate:"omitempty,min=1,max=255"`

	Owner *Person `bun:"rel:belongs-to,join:ownerId=id" json:"owner,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Animal)(nil)

func (a *Animal) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return validateOnWrite(query, "Animal", a)
}
