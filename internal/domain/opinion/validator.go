package opinion

import (
	"fmt"
	"strings"
)

// minSectionLength is the smallest trimmed content length considered
// materially filled.
const minSectionLength = 10

// placeholderMarkers flag content the author has not actually written yet.
var placeholderMarkers = []string{"[TODO]", "[PLACEHOLDER]", "TBD"}

// ValidationError reports the exact set of missing or incomplete required
// section keys. It is an expected control-flow outcome of finalize, not an
// exceptional condition.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("incomplete sections: %s", strings.Join(e.Missing, ", "))
}

// validateCompleteness checks every required section of the fixed shape.
// A section is incomplete when absent, empty, shorter than the minimum
// length after trimming, or still carrying a placeholder marker. The result
// is deterministic for identical input: same draft, same missing list.
func validateCompleteness(sections Sections) *ValidationError {
	var missing []string
	for _, key := range sectionOrder {
		if !requiredSections[key] {
			continue
		}
		sec, ok := sections[key]
		if !ok || !sectionComplete(sec.Content) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func sectionComplete(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minSectionLength {
		return false
	}
	upper := strings.ToUpper(trimmed)
	for _, marker := range placeholderMarkers {
		if strings.Contains(upper, marker) {
			return false
		}
	}
	return true
}

// validateShape rejects unknown section keys so the document cannot grow
// arbitrary content outside the fixed shape.
func validateShape(sections Sections) error {
	for key := range sections {
		if !KnownSection(key) {
			return fmt.Errorf("%w: %q", ErrUnknownSection, key)
		}
	}
	return nil
}
