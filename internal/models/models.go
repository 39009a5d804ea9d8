// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models defines the persisted entities of the recipe store.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Ingredients is an ordered list of ingredient lines stored as a JSON array.
type Ingredients []string

// Value implements driver.Valuer.
func (i Ingredients) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(i))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (i *Ingredients) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*i = Ingredients{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("ingredients: unsupported column type")
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*i = out
	return nil
}
