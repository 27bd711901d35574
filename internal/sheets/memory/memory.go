package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"kakebo/internal/sheets"
)

// Store keeps exported views per tab. It backs `export --dry-run` and tests.
type Store struct {
	mu   sync.Mutex
	tabs map[string][][]string
	// order of first export, for listing
	order []string
}

var _ sheets.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: map[string][][]string{}}
}

// Export replaces the tab content and returns a synthetic range reference.
func (s *Store) Export(_ context.Context, tab string, v sheets.View) (string, error) {
	tab = strings.TrimSpace(tab)
	if tab == "" {
		return "", errors.New("missing tab name")
	}
	rows := v.Values()
	copied := make([][]string, len(rows))
	for i, r := range rows {
		copied[i] = append([]string(nil), r...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[tab]; !ok {
		s.order = append(s.order, tab)
	}
	s.tabs[tab] = copied
	return fmt.Sprintf("mem:%s!A1:%d", tab, len(copied)), nil
}

// Tab returns a copy of what was last exported to tab.
func (s *Store) Tab(tab string) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[tab]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, true
}

// Tabs lists tab names in first-export order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
