package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Initial is the version every freshly created test case or fixture starts at.
const Initial = "1.0"

// Parsed is a version string broken into numeric segments. A two-part
// version has Patch == 0 and HasPatch == false.
type Parsed struct {
	Major    int
	Minor    int
	Patch    int
	HasPatch bool
}

func (p Parsed) String() string {
	if p.HasPatch {
		return fmt.Sprintf("%d.%d.%d", p.Major, p.Minor, p.Patch)
	}
	return fmt.Sprintf("%d.%d", p.Major, p.Minor)
}

// Parse splits a "major.minor" or "major.minor.patch" string. It returns
// false for any other shape.
func Parse(s string) (Parsed, bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 && len(parts) != 3 {
		return Parsed{}, false
	}
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Parsed{}, false
		}
		nums[i] = n
	}
	p := Parsed{Major: nums[0], Minor: nums[1]}
	if len(nums) == 3 {
		p.Patch = nums[2]
		p.HasPatch = true
	}
	return p, true
}

// Next advances a version string one ledger step.
//
// A two-part version gains a patch component ("1.0" -> "1.0.1") while a
// three-part version increments it ("1.0.1" -> "1.0.2"). The asymmetry is
// deliberate and load-bearing: existing ledgers were written under this rule,
// so it must not be "fixed" to increment the minor component.
//
// Anything that does not parse falls back to "<major>.0.1", keeping whatever
// leading number can be salvaged and defaulting the rest.
func Next(current string) string {
	p, ok := Parse(current)
	if !ok {
		return fmt.Sprintf("%d.0.1", salvageMajor(current))
	}
	if !p.HasPatch {
		return fmt.Sprintf("%d.%d.1", p.Major, p.Minor)
	}
	return fmt.Sprintf("%d.%d.%d", p.Major, p.Minor, p.Patch+1)
}

// Compare orders two parsed versions: -1, 0 or 1. A missing patch component
// compares as patch 0, so "1.0" < "1.0.1".
func Compare(a, b Parsed) int {
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	if a.Minor != b.Minor {
		return sign(a.Minor - b.Minor)
	}
	return sign(a.Patch - b.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func salvageMajor(s string) int {
	head := strings.TrimSpace(s)
	if i := strings.IndexByte(head, '.'); i >= 0 {
		head = head[:i]
	}
	if n, err := strconv.Atoi(head); err == nil && n >= 0 {
		return n
	}
	return 1
}
