package curriculum

import (
	"fmt"
	"strings"
)

// Validate checks the tree for empty and duplicate ids across all levels.
// Returns a combined error describing every problem found, or nil.
func (t Tree) Validate() error {
	var errs []string
	seen := make(map[string]string)

	check := func(kind, id string) {
		if id == "" {
			errs = append(errs, fmt.Sprintf("%s with empty id", kind))
			return
		}
		if prev, ok := seen[id]; ok {
			errs = append(errs, fmt.Sprintf("duplicate id %q (%s and %s)", id, prev, kind))
			return
		}
		seen[id] = kind
	}

	for _, s := range t.Subjects {
		check("subject", s.ID)
		for _, tp := range s.Topics {
			check("topic", tp.ID)
			for _, st := range tp.Subtopics {
				check("subtopic", st.ID)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid curriculum:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
