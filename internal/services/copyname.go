package services

import "fmt"

// copyNameBudget bounds the uniqueness probe; a project with a thousand
// copies of the same name is treated as pathological input.
const copyNameBudget = 1000

// CopyNameCandidate returns the nth candidate name for a copy of base:
// n=0 yields "base - Copy", n>=1 yields "base - Copy n".
func CopyNameCandidate(base string, n int) string {
	if n == 0 {
		return base + " - Copy"
	}
	return fmt.Sprintf("%s - Copy %d", base, n)
}

// nextFreeName probes candidates through exists until one is unclaimed.
func nextFreeName(base string, exists func(name string) (bool, error)) (string, error) {
	for n := 0; n < copyNameBudget; n++ {
		candidate := CopyNameCandidate(base, n)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrCopyNameExhausted
}
