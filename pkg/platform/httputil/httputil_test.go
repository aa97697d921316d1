package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "auditwatch/pkg/domain-errors"
	"auditwatch/pkg/requestcontext"
)

func TestWriteError_LifecycleCodes(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
		body   string
	}{
		{dErrors.CodeNotFound, http.StatusNotFound, "not_found"},
		{dErrors.CodeValidation, http.StatusBadRequest, "validation_error"},
		{dErrors.CodeInvalidTransition, http.StatusConflict, "invalid_transition"},
		{dErrors.CodeInvalidEscalation, http.StatusConflict, "invalid_escalation"},
		{dErrors.CodeIncompleteResolution, http.StatusUnprocessableEntity, "incomplete_resolution"},
		{dErrors.CodeUnavailable, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "boom"))

			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.body, body["error"])
			assert.Equal(t, "boom", body["error_description"])
		})
	}
}

func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestActorFromContext(t *testing.T) {
	assert.Equal(t, "admin", ActorFromContext(context.Background()))
	ctx := requestcontext.WithAdminActorID(context.Background(), "ciso")
	assert.Equal(t, "ciso", ActorFromContext(ctx))
}
