package models

import (
	"strings"

	id "auditwatch/pkg/domain"
)

// RequirementFilter selects requirements; zero fields match everything.
type RequirementFilter struct {
	Standard id.Standard
	Status   Status
	Priority Priority
	Category string
	Limit    int
}

func (f RequirementFilter) Matches(r *Requirement) bool {
	switch {
	case f.Standard != "" && r.Standard != f.Standard:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.Priority != "" && r.Priority != f.Priority:
		return false
	case f.Category != "" && r.Category != strings.ToLower(strings.TrimSpace(f.Category)):
		return false
	}
	return true
}

// ByReference orders requirements by standard, then reference.
func ByReference(a, b *Requirement) int {
	if c := strings.Compare(string(a.Standard), string(b.Standard)); c != 0 {
		return c
	}
	return strings.Compare(a.Reference, b.Reference)
}
