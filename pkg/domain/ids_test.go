package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "auditwatch/pkg/domain-errors"
)

// TestParseIDs validates parsing at trust boundaries.
//
// Justification: ids arrive from URLs, Kafka message keys and seed files; malformed
// values must be rejected with CodeInvalidInput before reaching a store.
func TestParseIDs(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIncidentID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseEventID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseRequirementID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, RequirementID(raw), id)
		assert.False(t, id.IsNil())
	})

	t.Run("nil uuid parses but reports IsNil", func(t *testing.T) {
		id, err := ParseIncidentID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})
}

func TestIDsMarshalAsStrings(t *testing.T) {
	id := NewIncidentID()
	out, err := json.Marshal(map[string]IncidentID{"id": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(out))
}

func TestParseStandard(t *testing.T) {
	t.Run("normalizes case and dashes", func(t *testing.T) {
		s, err := ParseStandard(" pci-dss ")
		require.NoError(t, err)
		assert.Equal(t, StandardPCIDSS, s)
	})

	t.Run("rejects unknown tags", func(t *testing.T) {
		_, err := ParseStandard("SOX")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("list becomes a sorted set", func(t *testing.T) {
		got, err := ParseStandards([]string{"hipaa", "GDPR", "HIPAA", ""})
		require.NoError(t, err)
		assert.Equal(t, []Standard{StandardGDPR, StandardHIPAA}, got)
	})
}
