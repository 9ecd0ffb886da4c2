package materialize

import (
	"path/filepath"
	"testing"
)

func TestTestCasePath(t *testing.T) {
	got := TestCasePath("/srv/e2e", "Login With SSO")
	want := filepath.Join("/srv/e2e", "login_with_sso.spec.ts")
	if got != want {
		t.Fatalf("TestCasePath = %q, want %q", got, want)
	}
}

func TestFixturePath(t *testing.T) {
	got := FixturePath("/srv/e2e", "Admin Session")
	want := filepath.Join("/srv/e2e", "fixtures", "admin_session.ts")
	if got != want {
		t.Fatalf("FixturePath = %q, want %q", got, want)
	}
}

func TestPathsForUnnamedParent(t *testing.T) {
	got := TestCasePath("/srv/e2e", "!!!")
	want := filepath.Join("/srv/e2e", "unnamed.spec.ts")
	if got != want {
		t.Fatalf("TestCasePath = %q, want %q", got, want)
	}
}
