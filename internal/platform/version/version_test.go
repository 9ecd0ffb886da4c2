package version

import "testing"

func TestNext(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.0", "1.0.1"},
		{"1.0.1", "1.0.2"},
		{"1.0.9", "1.0.10"},
		{"2.3", "2.3.1"},
		{"2.3.41", "2.3.42"},
		{"garbage", "1.0.1"},
		{"", "1.0.1"},
		{"7", "7.0.1"},
		{"7.x", "7.0.1"},
		{"1.2.3.4", "1.0.1"},
	}
	for _, tc := range cases {
		if got := Next(tc.in); got != tc.want {
			t.Errorf("Next(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNextIsMonotonic(t *testing.T) {
	v := Initial
	prev, ok := Parse(v)
	if !ok {
		t.Fatalf("Parse(%q) failed", v)
	}
	for i := 0; i < 50; i++ {
		v = Next(v)
		cur, ok := Parse(v)
		if !ok {
			t.Fatalf("Next produced unparseable version %q", v)
		}
		if Compare(cur, prev) <= 0 {
			t.Fatalf("version did not increase: %v -> %v", prev, cur)
		}
		prev = cur
	}
}

func TestParse(t *testing.T) {
	if _, ok := Parse("1.0"); !ok {
		t.Fatal("expected 1.0 to parse")
	}
	p, ok := Parse("4.7.12")
	if !ok || p.Major != 4 || p.Minor != 7 || p.Patch != 12 || !p.HasPatch {
		t.Fatalf("Parse(4.7.12) = %+v ok=%v", p, ok)
	}
	for _, bad := range []string{"", "1", "a.b", "1.2.3.4", "-1.0"} {
		if _, ok := Parse(bad); ok {
			t.Errorf("expected %q not to parse", bad)
		}
	}
}

func TestCompare(t *testing.T) {
	a, _ := Parse("1.0")
	b, _ := Parse("1.0.1")
	if Compare(a, b) != -1 || Compare(b, a) != 1 || Compare(a, a) != 0 {
		t.Fatal("Compare ordering wrong for 1.0 vs 1.0.1")
	}
}
