package config

import (
	"fmt"
	"strings"
)

// Error reports a configuration problem. Missing and Invalid carry every
// offending key found in one validation pass.
type Error struct {
	Path    string
	Reason  string
	Missing []string
	Invalid []string
	Err     error

	// Section names the offending section; empty means SectionName.
	Section string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&b, "%s: ", e.Path)
	}
	b.WriteString(e.Reason)
	if len(e.Missing) > 0 {
		section := e.Section
		if section == "" {
			section = SectionName
		}
		fmt.Fprintf(&b, "; missing or empty required keys in '%s': %s", section, strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		fmt.Fprintf(&b, "; invalid values: %s", strings.Join(e.Invalid, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }
