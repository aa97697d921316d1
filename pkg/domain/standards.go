package domain

import (
	"slices"
	"strings"

	dErrors "auditwatch/pkg/domain-errors"
)

// Standard tags a regulatory framework an event, incident or requirement relates to.
type Standard string

const (
	StandardHIPAA      Standard = "HIPAA"
	StandardHITECH     Standard = "HITECH"
	StandardGDPR       Standard = "GDPR"
	StandardSOC2       Standard = "SOC2"
	StandardPCIDSS     Standard = "PCI_DSS"
	StandardISO27001   Standard = "ISO_27001"
	StandardFDA21CFR11 Standard = "FDA_21CFR11"
)

var knownStandards = []Standard{
	StandardHIPAA,
	StandardHITECH,
	StandardGDPR,
	StandardSOC2,
	StandardPCIDSS,
	StandardISO27001,
	StandardFDA21CFR11,
}

// KnownStandards returns the supported standard tags in declaration order.
func KnownStandards() []Standard {
	return slices.Clone(knownStandards)
}

func (s Standard) IsValid() bool {
	return slices.Contains(knownStandards, s)
}

func (s Standard) String() string { return string(s) }

// ParseStandard accepts case-insensitive input and the common "-" spelling ("pci-dss").
func ParseStandard(raw string) (Standard, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	s := Standard(normalized)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown standard: "+raw)
	}
	return s, nil
}

// ParseStandards parses and normalizes a list of raw tags into a sorted set.
func ParseStandards(raw []string) ([]Standard, error) {
	out := make([]Standard, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		s, err := ParseStandard(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return NormalizeStandards(out), nil
}

// NormalizeStandards returns a sorted copy without duplicates.
func NormalizeStandards(in []Standard) []Standard {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// StandardStrings converts tags to plain strings for storage columns.
func StandardStrings(in []Standard) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
