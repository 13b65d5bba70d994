// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loader

import "fmt"

// Load phases
const (
	PhasePrepare = "prepare"
	PhaseStage   = "stage"
	PhaseSwap    = "swap"
)

// LoadError reports a failed load. Live tables are unchanged when it is
// returned.
type LoadError struct {
	Phase string
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("load failed during %s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("load failed during %s of table %s: %v", e.Phase, e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
