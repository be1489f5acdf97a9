package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultCodeAlphabet is the alphabet challenge codes are drawn from.
	DefaultCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// DefaultCodeLength is the number of characters in a challenge code.
	DefaultCodeLength = 5

	maxCodeLength = 32
)

var (
	errInvalidCodeLength   = errors.New("invalid code length")
	errInvalidCodeAlphabet = errors.New("invalid code alphabet")
)

// CodeGenerator produces fixed-length random codes over a fixed alphabet.
// It is safe for concurrent use.
type CodeGenerator struct {
	length   int
	alphabet string
	// bytes >= limit are rejected so every symbol is equally likely
	limit byte
}

// NewCodeGenerator validates length and alphabet and returns a generator.
func NewCodeGenerator(length int, alphabet string) (*CodeGenerator, error) {
	if length <= 0 || length > maxCodeLength {
		return nil, errInvalidCodeLength
	}
	if len(alphabet) < 2 || len(alphabet) > 256 {
		return nil, errInvalidCodeAlphabet
	}
	seen := make(map[byte]struct{}, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		if c <= ' ' || c > '~' {
			return nil, fmt.Errorf("%w: non-printable symbol", errInvalidCodeAlphabet)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %q", errInvalidCodeAlphabet, c)
		}
		seen[c] = struct{}{}
	}

	n := len(alphabet)
	return &CodeGenerator{
		length:   length,
		alphabet: alphabet,
		limit:    byte(256 - 256%n),
	}, nil
}

// Next returns a fresh code. crypto/rand.Read does not return errors on
// supported platforms, so Next cannot fail.
func (g *CodeGenerator) Next() string {
	var b strings.Builder
	b.Grow(g.length)

	n := len(g.alphabet)
	buf := make([]byte, g.length*2)
	for b.Len() < g.length {
		_, _ = rand.Read(buf)
		for _, v := range buf {
			if g.limit != 0 && v >= g.limit {
				continue
			}
			b.WriteByte(g.alphabet[int(v)%n])
			if b.Len() == g.length {
				break
			}
		}
	}

	return b.String()
}
