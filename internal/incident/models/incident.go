package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	pstrings "auditwatch/pkg/platform/strings"
)

// Impact quantifies who and what an incident affected.
type Impact struct {
	AffectedActors  int
	AffectedRecords int
	BusinessImpact  string
	DataImpact      string
}

// Note is a free-text investigation note.
type Note struct {
	At     time.Time
	Author string
	Text   string
}

// SeverityChange records one severity move. Override marks an explicit
// administrative change that bypassed escalation rules.
type SeverityChange struct {
	From     Severity
	To       Severity
	At       time.Time
	Actor    string
	Reason   string
	Override bool
}

// PatternKey identifies the detected pattern an incident was opened for.
type PatternKey struct {
	ActorID      string
	ResourceType string
	Flag         string
}

func (k PatternKey) String() string {
	return strings.Join([]string{k.ActorID, k.ResourceType, k.Flag}, "|")
}

// Incident is a tracked deviation moving through OPEN -> INVESTIGATING -> RESOLVED -> CLOSED.
// Response traces, notes and preventive measures only grow. Each lifecycle
// timestamp is set once, when its status is reached.
type Incident struct {
	ID          id.IncidentID
	Number      int64
	Title       string
	Description string
	Type        IncidentType
	Severity    Severity
	Status      Status

	Impact             Impact
	ImmediateActions   []string
	ContainmentActions []string
	RecoveryActions    []string

	ReportedBy         string
	InvestigatorID     string
	RootCause          string
	Resolution         string
	PreventiveMeasures []string

	StandardsImpacted     []id.Standard
	AuthoritiesNotified   bool
	AuthoritiesNotifiedAt *time.Time

	// Pattern is nil for manually created incidents.
	Pattern         *PatternKey
	LastFlaggedAt   time.Time
	Notes           []Note
	SeverityHistory []SeverityChange

	DetectedAt             time.Time
	ReportedAt             time.Time
	InvestigationStartedAt *time.Time
	ResolvedAt             *time.Time
	ClosedAt               *time.Time
	UpdatedAt              time.Time
}

// Draft is the input for opening an incident.
type Draft struct {
	Title             string
	Description       string
	Type              IncidentType
	Severity          Severity
	Impact            Impact
	StandardsImpacted []id.Standard
	Pattern           *PatternKey
	// DetectedAt defaults to the creation time.
	DetectedAt  time.Time
	ReportedBy  string
	InitialNote string
}

// NewIncident validates the draft and opens an incident at OPEN.
// The store assigns Number on create.
func NewIncident(incidentID id.IncidentID, d Draft, now time.Time) (*Incident, error) {
	d.Title = strings.TrimSpace(d.Title)
	switch {
	case incidentID.IsNil():
		return nil, dErrors.New(dErrors.CodeValidation, "incident id is required")
	case d.Title == "":
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	case !d.Type.IsValid():
		return nil, dErrors.New(dErrors.CodeValidation, "unknown incident type: "+string(d.Type))
	case !d.Severity.IsValid():
		return nil, dErrors.New(dErrors.CodeValidation, "unknown severity: "+string(d.Severity))
	case d.Impact.AffectedActors < 0 || d.Impact.AffectedRecords < 0:
		return nil, dErrors.New(dErrors.CodeValidation, "affected counts must not be negative")
	}
	for _, s := range d.StandardsImpacted {
		if !s.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown standard: "+string(s))
		}
	}
	detected := d.DetectedAt
	if detected.IsZero() {
		detected = now
	}

	inc := &Incident{
		ID:                incidentID,
		Title:             d.Title,
		Description:       strings.TrimSpace(d.Description),
		Type:              d.Type,
		Severity:          d.Severity,
		Status:            StatusOpen,
		Impact:            d.Impact,
		StandardsImpacted: id.NormalizeStandards(d.StandardsImpacted),
		ReportedBy:        strings.TrimSpace(d.ReportedBy),
		DetectedAt:        detected,
		ReportedAt:        now,
		UpdatedAt:         now,
		SeverityHistory: []SeverityChange{{
			To:    d.Severity,
			At:    now,
			Actor: d.ReportedBy,
		}},
	}
	if d.Pattern != nil {
		p := *d.Pattern
		inc.Pattern = &p
		inc.LastFlaggedAt = detected
	}
	if note := strings.TrimSpace(d.InitialNote); note != "" {
		inc.Notes = append(inc.Notes, Note{At: now, Author: d.ReportedBy, Text: note})
	}
	return inc, nil
}

// DisplayNumber is the human-readable incident number.
func (i *Incident) DisplayNumber() string {
	return fmt.Sprintf("INC-%06d", i.Number)
}

func (i *Incident) ensureMutable() error {
	if i.Status == StatusClosed {
		return dErrors.New(dErrors.CodeInvalidTransition, "incident is closed")
	}
	return nil
}

// Transition moves the incident one step forward and stamps the matching timestamp.
// Closing requires a resolution.
func (i *Incident) Transition(next Status, now time.Time) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown incident status: "+string(next))
	}
	if !i.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot transition incident from %s to %s", i.Status, next))
	}
	if next == StatusClosed && strings.TrimSpace(i.Resolution) == "" {
		return dErrors.New(dErrors.CodeIncompleteResolution, "incident cannot be closed without a resolution")
	}

	at := now
	switch next {
	case StatusInvestigating:
		i.InvestigationStartedAt = &at
	case StatusResolved:
		i.ResolvedAt = &at
	case StatusClosed:
		i.ClosedAt = &at
	}
	i.Status = next
	i.UpdatedAt = now
	return nil
}

// Escalate raises severity. Anything not strictly greater is rejected.
func (i *Incident) Escalate(next Severity, actor string, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown severity: "+string(next))
	}
	if !next.GreaterThan(i.Severity) {
		return dErrors.New(dErrors.CodeInvalidEscalation,
			fmt.Sprintf("cannot escalate incident from %s to %s", i.Severity, next))
	}
	i.SeverityHistory = append(i.SeverityHistory, SeverityChange{From: i.Severity, To: next, At: now, Actor: actor})
	i.Severity = next
	i.UpdatedAt = now
	return nil
}

// OverrideSeverity sets severity in either direction. The reason is mandatory
// and kept in the severity history.
func (i *Incident) OverrideSeverity(next Severity, reason, actor string, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	switch {
	case !next.IsValid():
		return dErrors.New(dErrors.CodeValidation, "unknown severity: "+string(next))
	case reason == "":
		return dErrors.New(dErrors.CodeValidation, "override reason is required")
	case next == i.Severity:
		return dErrors.New(dErrors.CodeValidation, "severity is already "+string(next))
	}
	i.SeverityHistory = append(i.SeverityHistory, SeverityChange{
		From: i.Severity, To: next, At: now, Actor: actor, Reason: reason, Override: true,
	})
	i.Severity = next
	i.UpdatedAt = now
	return nil
}

// SetResolution records how the incident was resolved.
// Empty root cause keeps the current one; measures are merged.
func (i *Incident) SetResolution(resolution, rootCause string, measures []string, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return dErrors.New(dErrors.CodeValidation, "resolution is required")
	}
	i.Resolution = resolution
	if rc := strings.TrimSpace(rootCause); rc != "" {
		i.RootCause = rc
	}
	i.PreventiveMeasures = pstrings.AppendUnique(i.PreventiveMeasures, measures...)
	i.UpdatedAt = now
	return nil
}

func (i *Incident) AssignInvestigator(investigatorID string, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	investigatorID = strings.TrimSpace(investigatorID)
	if investigatorID == "" {
		return dErrors.New(dErrors.CodeValidation, "investigator id is required")
	}
	i.InvestigatorID = investigatorID
	i.UpdatedAt = now
	return nil
}

// AppendActions adds actions to the trace for phase.
func (i *Incident) AppendActions(phase ActionPhase, actions []string, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	var cleaned []string
	for _, a := range actions {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one action is required")
	}
	switch phase {
	case PhaseImmediate:
		i.ImmediateActions = append(i.ImmediateActions, cleaned...)
	case PhaseContainment:
		i.ContainmentActions = append(i.ContainmentActions, cleaned...)
	case PhaseRecovery:
		i.RecoveryActions = append(i.RecoveryActions, cleaned...)
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown action phase: "+string(phase))
	}
	i.UpdatedAt = now
	return nil
}

func (i *Incident) UpdateImpact(impact Impact, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	if impact.AffectedActors < 0 || impact.AffectedRecords < 0 {
		return dErrors.New(dErrors.CodeValidation, "affected counts must not be negative")
	}
	impact.BusinessImpact = strings.TrimSpace(impact.BusinessImpact)
	impact.DataImpact = strings.TrimSpace(impact.DataImpact)
	i.Impact = impact
	i.UpdatedAt = now
	return nil
}

// RecordAuthorityNotification marks regulators as notified. It can happen once.
func (i *Incident) RecordAuthorityNotification(at, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	if i.AuthoritiesNotified {
		return dErrors.New(dErrors.CodeConflict, "authorities already notified")
	}
	if at.IsZero() {
		at = now
	}
	i.AuthoritiesNotified = true
	i.AuthoritiesNotifiedAt = &at
	i.UpdatedAt = now
	return nil
}

// AddNote appends an investigation note.
func (i *Incident) AddNote(author, text string, now time.Time) error {
	if err := i.ensureMutable(); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return dErrors.New(dErrors.CodeValidation, "note text is required")
	}
	i.Notes = append(i.Notes, Note{At: now, Author: author, Text: text})
	i.UpdatedAt = now
	return nil
}

// RecordRecurrence appends a note for a repeated pattern hit and moves LastFlaggedAt forward.
func (i *Incident) RecordRecurrence(text string, flaggedAt, now time.Time) error {
	if err := i.AddNote("", text, now); err != nil {
		return err
	}
	if flaggedAt.After(i.LastFlaggedAt) {
		i.LastFlaggedAt = flaggedAt
	}
	return nil
}

// CoversPattern reports whether a new flag for key at flaggedAt belongs to this incident.
func (i *Incident) CoversPattern(key PatternKey, flaggedAt time.Time, window time.Duration) bool {
	if i.Pattern == nil || *i.Pattern != key || !i.Status.IsActive() {
		return false
	}
	gap := flaggedAt.Sub(i.LastFlaggedAt)
	if gap < 0 {
		gap = -gap
	}
	return gap <= window
}

// HasStandard reports whether s is among the impacted standards.
func (i *Incident) HasStandard(s id.Standard) bool {
	return slices.Contains(i.StandardsImpacted, s)
}

// Clone returns a deep copy.
func (i *Incident) Clone() *Incident {
	if i == nil {
		return nil
	}
	c := *i
	c.ImmediateActions = slices.Clone(i.ImmediateActions)
	c.ContainmentActions = slices.Clone(i.ContainmentActions)
	c.RecoveryActions = slices.Clone(i.RecoveryActions)
	c.PreventiveMeasures = slices.Clone(i.PreventiveMeasures)
	c.StandardsImpacted = slices.Clone(i.StandardsImpacted)
	c.Notes = slices.Clone(i.Notes)
	c.SeverityHistory = slices.Clone(i.SeverityHistory)
	if i.Pattern != nil {
		p := *i.Pattern
		c.Pattern = &p
	}
	c.AuthoritiesNotifiedAt = cloneTime(i.AuthoritiesNotifiedAt)
	c.InvestigationStartedAt = cloneTime(i.InvestigationStartedAt)
	c.ResolvedAt = cloneTime(i.ResolvedAt)
	c.ClosedAt = cloneTime(i.ClosedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
