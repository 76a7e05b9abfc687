// Package idgen builds shareable event identifiers of the form word-word-word-TOKEN.
//
// The words only make an identifier easy to read out or paste; the token carries
// the entropy (40 bits from crypto/rand) and is what makes identifiers unguessable.
package idgen

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	wordCount  = 3
	tokenBytes = 5
	separator  = "-"
)

// 5 bytes encode to exactly 8 upper-case base32 characters.
var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generator produces a fresh identifier on each call.
type Generator interface {
	Generate() (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() (string, error)

func (f GeneratorFunc) Generate() (string, error) { return f() }

// Words draws identifiers from a word list and a random source.
type Words struct {
	words  []string
	random io.Reader
}

// NewWords returns a Generator backed by the built-in word list and crypto/rand.
func NewWords(opts ...Option) *Words {
	w := &Words{
		words:  wordList,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type Option func(*Words)

// WithRandom replaces the random source (tests use a deterministic reader).
func WithRandom(r io.Reader) Option {
	return func(w *Words) {
		if r != nil {
			w.random = r
		}
	}
}

func (w *Words) Generate() (string, error) {
	parts := make([]string, 0, wordCount+1)
	limit := big.NewInt(int64(len(w.words)))
	for i := 0; i < wordCount; i++ {
		n, err := rand.Int(w.random, limit)
		if err != nil {
			return "", fmt.Errorf("pick word: %w", err)
		}
		parts = append(parts, w.words[n.Int64()])
	}

	raw := make([]byte, tokenBytes)
	if _, err := io.ReadFull(w.random, raw); err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	parts = append(parts, tokenEncoding.EncodeToString(raw))

	return strings.Join(parts, separator), nil
}

// List returns a copy of the word list identifiers are drawn from.
func (w *Words) List() []string {
	return append([]string(nil), w.words...)
}

var wordList = []string{
	"ember", "falcon", "plum", "violet", "orbit", "river", "thunder", "cinder", "puzzle", "lumen",
	"hazel", "comet", "atlas", "raven", "mango", "cedar", "opal", "breeze", "quantum", "saffron",
	"zenith", "pickle", "marble", "anchor", "lantern", "kestrel", "glacier", "squid", "pepper", "nectar",
	"spruce", "jigsaw", "cobalt", "fjord", "tulip", "aurora", "socket", "crystal", "mosaic", "pirate",
	"canyon", "whisper", "rocket", "basil", "matrix", "copper", "plasma", "fable", "cashew", "goblin",
	"vortex", "sugar", "radar", "cactus", "magnet", "tiger", "kiwi", "octane", "sphinx", "dragon",
	"sailor", "waffle", "ripple", "velvet", "banjo", "scooter",
}
