package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/caseforge/caseforge-backend/internal/platform/apierr"
	"github.com/caseforge/caseforge-backend/internal/services"
)

func respond(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondServiceError(c, err)

	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return w.Code, env
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{services.ErrNotFound, http.StatusNotFound, "not_found"},
		{services.ErrVersionNotFound, http.StatusNotFound, "not_found"},
		{services.ErrNameTaken, http.StatusConflict, "name_taken"},
		{services.ErrOrderingConflict, http.StatusConflict, "conflict"},
		{services.ErrEmptyHistorySnapshot, http.StatusConflict, "conflict"},
		{services.ErrFixtureProject, http.StatusUnprocessableEntity, "cross_project"},
		{errors.New("anything else"), http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		status, env := respond(t, tc.err)
		if status != tc.wantStatus || env.Error.Code != tc.wantCode {
			t.Errorf("err %v: got (%d, %q), want (%d, %q)",
				tc.err, status, env.Error.Code, tc.wantStatus, tc.wantCode)
		}
	}
}

// Services can attach a status and code directly; the mapper must honor them
// even when the error is wrapped.
func TestRespondServiceErrorHonorsAPIError(t *testing.T) {
	base := apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid credentials"))
	status, env := respond(t, fmt.Errorf("login: %w", base))
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", status, http.StatusUnauthorized)
	}
	if env.Error.Code != "invalid_credentials" {
		t.Fatalf("code = %q, want %q", env.Error.Code, "invalid_credentials")
	}
}
