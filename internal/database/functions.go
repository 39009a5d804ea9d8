// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// FoldFunc lowercases text with Unicode rules. SQLite's lower() only maps
// ASCII letters, so Cyrillic titles would never match a search.
const FoldFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldValue)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return v, nil
	}
}

// Fold is the Go side of FoldFunc. Search terms go through it before they
// are compared with folded columns.
func Fold(s string) string {
	return strings.ToLower(s)
}
