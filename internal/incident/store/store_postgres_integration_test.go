//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"auditwatch/internal/incident/models"
	"auditwatch/internal/incident/store"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
	"auditwatch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "incidents"))
}

var (
	now = time.Date(2026, 8, 3, 1, 0, 0, 0, time.UTC)
	key = models.PatternKey{ActorID: "nurse-1", ResourceType: "patient_record", Flag: "REPEATED_ACCESS_FAILURE"}
)

func (s *PostgresStoreSuite) create(pattern *models.PatternKey, std id.Standard) *models.Incident {
	inc, err := models.NewIncident(id.NewIncidentID(), models.Draft{
		Title:             "Repeated access failures",
		Type:              models.TypeUnauthorizedAccess,
		Severity:          models.SeverityHigh,
		Pattern:           pattern,
		StandardsImpacted: []id.Standard{std},
		InitialNote:       "six denials in 15 minutes",
	}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), inc))
	return inc
}

func (s *PostgresStoreSuite) TestCreateAssignsIncreasingNumbers() {
	first := s.create(nil, id.StandardHIPAA)
	second := s.create(nil, id.StandardHIPAA)
	s.Greater(second.Number, first.Number)

	s.ErrorIs(s.store.Create(context.Background(), first), sentinel.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestUpdateRoundTripsDetails() {
	ctx := context.Background()
	inc := s.create(&key, id.StandardHIPAA)

	s.Require().NoError(inc.Transition(models.StatusInvestigating, now.Add(time.Minute)))
	s.Require().NoError(inc.AssignInvestigator("sec-7", now.Add(time.Minute)))
	s.Require().NoError(inc.Escalate(models.SeverityCritical, "sec-7", now.Add(2*time.Minute)))
	s.Require().NoError(inc.AddNote("sec-7", "credentials shared at front desk", now.Add(3*time.Minute)))
	s.Require().NoError(s.store.Update(ctx, inc))

	got, err := s.store.FindByID(ctx, inc.ID)
	s.Require().NoError(err)
	s.Equal(inc.Number, got.Number)
	s.Equal(models.StatusInvestigating, got.Status)
	s.Equal(models.SeverityCritical, got.Severity)
	s.Equal("sec-7", got.InvestigatorID)
	s.Len(got.Notes, len(inc.Notes))
	s.Len(got.SeverityHistory, 2)
	s.Require().NotNil(got.InvestigationStartedAt)
	s.True(now.Add(time.Minute).Equal(*got.InvestigationStartedAt))
	s.Require().NotNil(got.Pattern)
	s.Equal(key, *got.Pattern)
	s.Equal([]id.Standard{id.StandardHIPAA}, got.StandardsImpacted)

	missing, err := models.NewIncident(id.NewIncidentID(), models.Draft{Title: "x", Type: models.TypeMalware, Severity: models.SeverityLow}, now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Update(ctx, missing), sentinel.ErrNotFound)
	_, err = s.store.FindByID(ctx, missing.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindActiveByPattern() {
	ctx := context.Background()
	_, err := s.store.FindActiveByPattern(ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)

	active := s.create(&key, id.StandardHIPAA)
	s.create(&models.PatternKey{ActorID: "other", ResourceType: key.ResourceType, Flag: key.Flag}, id.StandardHIPAA)

	got, err := s.store.FindActiveByPattern(ctx, key)
	s.Require().NoError(err)
	s.Equal(active.ID, got.ID)

	s.Require().NoError(got.Transition(models.StatusInvestigating, now))
	s.Require().NoError(got.Transition(models.StatusResolved, now))
	s.Require().NoError(s.store.Update(ctx, got))
	_, err = s.store.FindActiveByPattern(ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound, "resolved incidents are not active")
}

func (s *PostgresStoreSuite) TestListNewestFirstWithFilters() {
	ctx := context.Background()
	a := s.create(nil, id.StandardHIPAA)
	b := s.create(nil, id.StandardGDPR)
	c := s.create(nil, id.StandardHIPAA)

	all, err := s.store.List(ctx, models.IncidentFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]id.IncidentID{c.ID, b.ID, a.ID}, []id.IncidentID{all[0].ID, all[1].ID, all[2].ID})

	hipaa, err := s.store.List(ctx, models.IncidentFilter{Standard: id.StandardHIPAA, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(hipaa, 1)
	s.Equal(c.ID, hipaa[0].ID)

	windowed, err := s.store.List(ctx, models.IncidentFilter{DetectedFrom: now.Add(time.Hour)})
	s.Require().NoError(err)
	s.Empty(windowed)
}
