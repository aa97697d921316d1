package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"auditwatch/internal/compliance/models"
	"auditwatch/internal/compliance/service"
	id "auditwatch/pkg/domain"
	"auditwatch/pkg/validation"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog is the on-disk requirement catalog.
type Catalog struct {
	Version      int     `yaml:"version"`
	Requirements []Entry `yaml:"requirements"`
}

// Entry is one requirement as written in the catalog.
type Entry struct {
	ID                 string     `yaml:"id"`
	Standard           string     `yaml:"standard"`
	Reference          string     `yaml:"reference"`
	Title              string     `yaml:"title"`
	Description        string     `yaml:"description"`
	Category           string     `yaml:"category"`
	Priority           string     `yaml:"priority"`
	Status             string     `yaml:"status"`
	PolicyRefs         []string   `yaml:"policy_refs"`
	ProcedureRefs      []string   `yaml:"procedure_refs"`
	EvidenceRefs       []string   `yaml:"evidence_refs"`
	Risk               EntryRisk  `yaml:"risk"`
	ReviewFrequency    string     `yaml:"review_frequency"`
	LastReviewedAt     *time.Time `yaml:"last_reviewed_at"`
	ImplementationDate *time.Time `yaml:"implementation_date"`
	VerificationDate   *time.Time `yaml:"verification_date"`
}

type EntryRisk struct {
	Level       string   `yaml:"level"`
	Description string   `yaml:"description"`
	Mitigations []string `yaml:"mitigations"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a catalog. Unknown keys are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// Commands validates every entry and converts the catalog into upserts.
// All entry errors are reported together.
func (c *Catalog) Commands(actor string) ([]service.UpsertCommand, error) {
	cmds := make([]service.UpsertCommand, 0, len(c.Requirements))
	seen := make(map[string]int, len(c.Requirements))
	var errs []error
	for i, e := range c.Requirements {
		cmd, err := e.command(actor)
		if err != nil {
			errs = append(errs, fmt.Errorf("requirement %d (%s): %w", i, e.label(), err))
			continue
		}
		key := string(cmd.Standard) + "|" + cmd.Reference
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("requirement %d (%s): duplicates requirement %d", i, e.label(), prev))
			continue
		}
		seen[key] = i
		cmds = append(cmds, cmd)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cmds, nil
}

func (e Entry) label() string {
	return strings.TrimSpace(e.Standard + " " + e.Reference)
}

func (e Entry) command(actor string) (service.UpsertCommand, error) {
	var cmd service.UpsertCommand
	var err error

	if strings.TrimSpace(e.ID) != "" {
		if cmd.ID, err = id.ParseRequirementID(e.ID); err != nil {
			return cmd, err
		}
	}
	if cmd.Standard, err = id.ParseStandard(e.Standard); err != nil {
		return cmd, err
	}
	cmd.Reference = strings.TrimSpace(e.Reference)
	if cmd.Reference == "" {
		return cmd, errors.New("reference is required")
	}
	if len(cmd.Reference) > validation.MaxIdentifierLength {
		return cmd, fmt.Errorf("reference exceeds %d characters", validation.MaxIdentifierLength)
	}
	if strings.TrimSpace(e.Title) == "" {
		return cmd, errors.New("title is required")
	}
	if cmd.Priority, err = models.ParsePriority(e.Priority); err != nil {
		return cmd, err
	}
	if strings.TrimSpace(e.Status) != "" {
		if cmd.Status, err = models.ParseStatus(e.Status); err != nil {
			return cmd, err
		}
	}
	if cmd.Frequency, err = models.ParseFrequency(e.ReviewFrequency); err != nil {
		return cmd, err
	}
	if cmd.Risk.Level, err = models.ParseRiskLevel(e.Risk.Level); err != nil {
		return cmd, err
	}
	if err := validation.CheckList("policy_refs", e.PolicyRefs, validation.MaxArtifactRefs, validation.MaxRefLength); err != nil {
		return cmd, err
	}
	if err := validation.CheckList("procedure_refs", e.ProcedureRefs, validation.MaxArtifactRefs, validation.MaxRefLength); err != nil {
		return cmd, err
	}
	if err := validation.CheckList("evidence_refs", e.EvidenceRefs, validation.MaxArtifactRefs, validation.MaxRefLength); err != nil {
		return cmd, err
	}
	if err := validation.CheckList("risk.mitigations", e.Risk.Mitigations, validation.MaxMitigations, validation.MaxActionLength); err != nil {
		return cmd, err
	}

	cmd.Title = e.Title
	cmd.Description = e.Description
	cmd.Category = e.Category
	cmd.PolicyRefs = e.PolicyRefs
	cmd.ProcedureRefs = e.ProcedureRefs
	cmd.EvidenceRefs = e.EvidenceRefs
	cmd.Risk.Description = e.Risk.Description
	cmd.Risk.Mitigations = e.Risk.Mitigations
	cmd.LastReviewedAt = e.LastReviewedAt
	cmd.ImplementationDate = e.ImplementationDate
	cmd.VerificationDate = e.VerificationDate
	cmd.Actor = actor
	return cmd, nil
}
