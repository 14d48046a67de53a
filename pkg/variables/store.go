// Package variables holds a collection's named variables and resolves
// {{name}} placeholders against them.
package variables

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/blackcoderx/apman/pkg/collection"
)

// MissingError reports declared variables that were not supplied.
type MissingError struct {
	Missing []string
	// Table is the variable table at the time of the check, in declaration order.
	Table []Entry
}

func (e *MissingError) Error() string {
	var b strings.Builder
	for _, name := range e.Missing {
		fmt.Fprintf(&b, "Variable %q is required.\n", name)
	}
	b.WriteString("Current variables:\n")
	for _, entry := range e.Table {
		fmt.Fprintf(&b, "  %s => %s\n", entry.Name, entry.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Entry is one row of the variable table.
type Entry struct {
	Name  string
	Value string
}

// Store maps variable names to values. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	order   []string
	values  map[string]string
	pattern *regexp.Regexp
}

// Build creates a store from the collection's declared variables. Disabled
// variables are skipped.
func Build(declared []collection.Variable) *Store {
	s := &Store{values: make(map[string]string)}
	for _, v := range declared {
		if v.Disabled {
			continue
		}
		s.add(v.Name(), v.Value)
	}
	s.compile()
	return s
}

func (s *Store) add(name, value string) {
	if name == "" {
		return
	}
	if _, ok := s.values[name]; !ok {
		s.order = append(s.order, name)
	}
	s.values[name] = value
}

// compile rebuilds the placeholder pattern. Names are tried longest first,
// then in declaration order. Callers hold the write lock or own s exclusively.
func (s *Store) compile() {
	if len(s.order) == 0 {
		s.pattern = nil
		return
	}
	names := make([]string, len(s.order))
	copy(names, s.order)
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	for i, n := range names {
		names[i] = regexp.QuoteMeta(n)
	}
	s.pattern = regexp.MustCompile(`\{\{(` + strings.Join(names, "|") + `)\}\}`)
}

// ValidateSupplied checks that every declared variable has a non-empty value
// in supplied and, if so, commits all supplied values. Otherwise nothing is
// committed and a *MissingError naming every missing variable is returned.
func (s *Store) ValidateSupplied(supplied map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	for _, name := range s.order {
		if supplied[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Missing: missing, Table: s.tableLocked()}
	}

	names := make([]string, 0, len(supplied))
	for name := range supplied {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.add(name, supplied[name])
	}
	s.compile()
	return nil
}

// Resolve replaces every {{name}} placeholder of a known variable in one
// pass. Unknown placeholders are left untouched.
func (s *Store) Resolve(in string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pattern == nil {
		return in
	}
	return s.pattern.ReplaceAllStringFunc(in, func(match string) string {
		name := match[2 : len(match)-2]
		return s.values[name]
	})
}

// Set updates or adds one variable without re-validating the table.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, known := s.values[name]
	s.add(name, value)
	if !known {
		s.compile()
	}
}

// Get returns the value of a variable.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Names returns variable names in declaration order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Table returns a snapshot of the variable table.
func (s *Store) Table() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tableLocked()
}

func (s *Store) tableLocked() []Entry {
	out := make([]Entry, len(s.order))
	for i, name := range s.order {
		out[i] = Entry{Name: name, Value: s.values[name]}
	}
	return out
}
