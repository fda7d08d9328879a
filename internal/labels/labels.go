package labels

import (
	"fmt"
	"os"
	"sort"
)

// Set is the ordered, immutable mapping from classifier output index to
// label string, established once at startup.
type Set struct {
	names []string
}

// New builds a set from an ordered list of label names.
func New(names []string) *Set {
	copied := append([]string(nil), names...)
	return &Set{names: copied}
}

// FromDirectory lists a dataset directory and uses its sorted entry names
// as labels, index = sort position. Mirrors training-set layout where each
// class has its own subdirectory.
func FromDirectory(path string) (*Set, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read labels directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("labels directory %s is empty", path)
	}
	return &Set{names: names}, nil
}

// Synthesize generates Class_{i} names when no label source is available.
func Synthesize(numClasses int) *Set {
	names := make([]string, numClasses)
	for i := range names {
		names[i] = fmt.Sprintf("Class_%d", i)
	}
	return &Set{names: names}
}

func (s *Set) Len() int {
	return len(s.names)
}

func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Resolve maps an output index to its label. Indexes outside the mapping
// degrade to a synthesized placeholder so the loop never fails on them.
func (s *Set) Resolve(index int) string {
	if index < 0 || index >= len(s.names) {
		return fmt.Sprintf("Unknown_%d", index)
	}
	return s.names[index]
}
