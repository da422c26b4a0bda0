// Package shortid generates the human-shareable identifiers used by the
// invite directory. An ID composes a random adjective, a random noun, and a
// random three-digit numeral: "syrja-merryotter-042". The space is small on
// purpose (easy to read out loud); uniqueness among live entries is the
// directory's job, not the generator's.
package shortid

import (
	"crypto/rand"
	"fmt"
)

// Prefix is the fixed leading token of every generated ID.
const Prefix = "syrja"

var adjectives = [...]string{
	"brisk", "calm", "clever", "eager", "fuzzy", "gentle",
	"happy", "keen", "lively", "lucky", "merry", "nimble",
	"quiet", "rapid", "sunny", "witty",
}

var nouns = [...]string{
	"auk", "bear", "crane", "duck", "elk", "fox",
	"gull", "hare", "lynx", "otter", "pike", "seal",
	"swan", "tern", "vole", "wolf",
}

// New returns a freshly generated short ID. Callers must check the result
// for collisions against their own live set and call New again if needed.
func New() (string, error) {
	adj, err := pick(adjectives[:])
	if err != nil {
		return "", err
	}
	noun, err := pick(nouns[:])
	if err != nil {
		return "", err
	}
	n, err := randBelow(1000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s%s-%03d", Prefix, adj, noun, n), nil
}

func pick(words []string) (string, error) {
	i, err := randBelow(len(words))
	if err != nil {
		return "", err
	}
	return words[i], nil
}

// randBelow returns a uniform random int in [0, n) from crypto/rand.
// The rejection threshold avoids modulo bias.
func randBelow(n int) (int, error) {
	const space = 1 << 16
	fair := space - (space % n)
	var b [2]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("crypto/rand: %w", err)
		}
		v := int(b[0])<<8 | int(b[1])
		if v < fair {
			return v % n, nil
		}
	}
}
