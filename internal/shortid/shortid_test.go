package shortid

import (
	"regexp"
	"testing"
)

func TestNewMatchesPublishedPattern(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^syrja-[a-z]+-[0-9]{3}$`)
	for n := 0; n < 200; n++ {
		id, err := New()
		if err != nil {
			t.Fatal(err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("id %q does not match syrja-<word>-<3 digits>", id)
		}
	}
}

func TestRandBelowStaysInRange(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 16, 1000} {
		for j := 0; j < 100; j++ {
			v, err := randBelow(n)
			if err != nil {
				t.Fatal(err)
			}
			if v < 0 || v >= n {
				t.Fatalf("randBelow(%d) = %d out of range", n, v)
			}
		}
	}
}
