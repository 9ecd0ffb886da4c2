package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/caseforge/caseforge-backend/internal/data/repos/testutil"
	"github.com/caseforge/caseforge-backend/internal/platform/apierr"
)

func TestRegisterUserValidation(t *testing.T) {
	svc := NewAuthService(nil, testutil.Logger(t), nil, "secret", time.Hour)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Email: "", Password: "longenough"}},
		{"malformed email", RegisterInput{Email: "not-an-email", Password: "longenough"}},
		{"short password", RegisterInput{Email: "a@b.test", Password: "short"}},
		{"unknown role", RegisterInput{Email: "a@b.test", Password: "longenough", Role: "owner"}},
	}
	for _, tc := range cases {
		_, err := svc.RegisterUser(ctx, tc.input)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		var ae *apierr.Error
		if !errors.As(err, &ae) {
			t.Errorf("%s: err %v is not an apierr.Error", tc.name, err)
			continue
		}
		if ae.Status != http.StatusBadRequest || ae.Code != "invalid_input" {
			t.Errorf("%s: got (%d, %q), want (%d, %q)",
				tc.name, ae.Status, ae.Code, http.StatusBadRequest, "invalid_input")
		}
	}
}
