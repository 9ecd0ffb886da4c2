package services

import (
	"errors"
	"testing"
)

func TestCopyNameCandidate(t *testing.T) {
	cases := []struct {
		base string
		n    int
		want string
	}{
		{"Login", 0, "Login - Copy"},
		{"Login", 1, "Login - Copy 1"},
		{"Login", 12, "Login - Copy 12"},
		{"Login - Copy", 0, "Login - Copy - Copy"},
	}
	for _, c := range cases {
		if got := CopyNameCandidate(c.base, c.n); got != c.want {
			t.Errorf("CopyNameCandidate(%q, %d) = %q, want %q", c.base, c.n, got, c.want)
		}
	}
}

func TestNextFreeNameSkipsTaken(t *testing.T) {
	taken := map[string]bool{
		"Login - Copy":   true,
		"Login - Copy 1": true,
	}
	got, err := nextFreeName("Login", func(name string) (bool, error) {
		return taken[name], nil
	})
	if err != nil {
		t.Fatalf("nextFreeName: %v", err)
	}
	if got != "Login - Copy 2" {
		t.Fatalf("nextFreeName = %q, want %q", got, "Login - Copy 2")
	}
}

func TestNextFreeNameExhausted(t *testing.T) {
	_, err := nextFreeName("Login", func(name string) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, ErrCopyNameExhausted) {
		t.Fatalf("err = %v, want ErrCopyNameExhausted", err)
	}
}

func TestNextFreeNamePropagatesProbeError(t *testing.T) {
	probeErr := errors.New("probe failed")
	_, err := nextFreeName("Login", func(name string) (bool, error) {
		return false, probeErr
	})
	if !errors.Is(err, probeErr) {
		t.Fatalf("err = %v, want probe error", err)
	}
}
