package seed

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/compliance/models"
	id "auditwatch/pkg/domain"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, c.Requirements)

	cmds, err := c.Commands("seed")
	require.NoError(t, err)
	assert.Len(t, cmds, len(c.Requirements))

	covered := map[id.Standard]bool{}
	for _, cmd := range cmds {
		covered[cmd.Standard] = true
		assert.Equal(t, "seed", cmd.Actor)
	}
	for _, std := range id.KnownStandards() {
		assert.True(t, covered[std], "default catalog covers %s", std)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse(strings.NewReader(`
requirements:
  - standard: pci-dss
    reference: " 10.2 "
    title: Audit logs
    priority: high
    status: implemented
    implementation_date: 2025-11-03T00:00:00Z
    review_frequency: semi-annual
`))
	require.NoError(t, err)
	cmds, err := c.Commands("ops")
	require.NoError(t, err)
	require.Len(t, cmds, 1)

	cmd := cmds[0]
	assert.Equal(t, id.StandardPCIDSS, cmd.Standard)
	assert.Equal(t, "10.2", cmd.Reference)
	assert.Equal(t, models.PriorityHigh, cmd.Priority)
	assert.Equal(t, models.StatusImplemented, cmd.Status)
	assert.Equal(t, models.FrequencySemiAnnual, cmd.Frequency)
	assert.Equal(t, models.RiskMedium, cmd.Risk.Level)
	require.NotNil(t, cmd.ImplementationDate)
	assert.Equal(t, 2025, cmd.ImplementationDate.Year())
	assert.True(t, cmd.ID.IsNil())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("requirements:\n  - standard: HIPAA\n    owner: bob\n"))
	assert.Error(t, err)
}

func TestParseEmptyInput(t *testing.T) {
	c, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Requirements)
}

func TestCommandsReportsEveryBadEntry(t *testing.T) {
	c, err := LoadFile(filepath.Join("testdata", "bad_catalog.yaml"))
	require.NoError(t, err)

	cmds, err := c.Commands("seed")
	require.Error(t, err)
	assert.Nil(t, cmds)

	msg := err.Error()
	assert.Contains(t, msg, "requirement 1 (NIST AC-2)")
	assert.Contains(t, msg, "requirement 2 (HIPAA 164.312(b)): duplicates requirement 0")
	assert.Contains(t, msg, "requirement 3 (GDPR Art. 32)")
	assert.NotContains(t, msg, "requirement 0 ")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}
