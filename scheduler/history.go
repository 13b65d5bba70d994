// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"sync"

	"github.com/anirudhqwerty/kastack-project/models"
)

// DefaultHistorySize is the number of runs kept in memory.
const DefaultHistorySize = 50

// History keeps the most recent run summaries.
type History struct {
	mu   sync.RWMutex
	size int
	runs []models.RunSummary // oldest first
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

// Add records a run, evicting the oldest when full.
func (h *History) Add(run models.RunSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append(h.runs, run)
	if over := len(h.runs) - h.size; over > 0 {
		h.runs = append(h.runs[:0:0], h.runs[over:]...)
	}
}

// Recent returns up to limit runs, newest first. limit <= 0 returns all.
func (h *History) Recent(limit int) []models.RunSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.runs)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.RunSummary, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.runs[i])
	}
	return out
}

// Last returns the newest run.
func (h *History) Last() (models.RunSummary, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.runs) == 0 {
		return models.RunSummary{}, false
	}
	return h.runs[len(h.runs)-1], true
}

// LastSuccess returns the newest successful run.
func (h *History) LastSuccess() (models.RunSummary, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.runs) - 1; i >= 0; i-- {
		if h.runs[i].Succeeded() {
			return h.runs[i], true
		}
	}
	return models.RunSummary{}, false
}
