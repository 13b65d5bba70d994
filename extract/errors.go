// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package extract

import "fmt"

// SourceNotFoundError means a source file does not exist. The run aborts.
type SourceNotFoundError struct {
	Source string
	Path   string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %s not found at %s", e.Source, e.Path)
}

// SchemaError means a source header lacks a required column. The run aborts.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("source %s has no header row", e.Source)
	}
	return fmt.Sprintf("source %s is missing required column %q", e.Source, e.Column)
}
