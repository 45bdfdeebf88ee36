// Package idgen produces human-readable identifiers for loans, guarantors
// and payments. It is the single source of truth for ID formatting.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrExhausted means the random policy could not find a free identifier
// within the attempt bound. The namespace is effectively full; this is a
// configuration fault, not a retryable error.
var ErrExhausted = errors.New("identifier namespace exhausted")

// Kind describes an identifier family.
type Kind struct {
	Prefix     string
	Sequential bool
}

var (
	Loan      = Kind{Prefix: "LO", Sequential: true}
	Guarantor = Kind{Prefix: "GR", Sequential: true}
	Payment   = Kind{Prefix: "PAY", Sequential: false}
)

const (
	sequenceWidth     = 4
	randomRange       = 1_000_000
	maxRandomAttempts = 25
)

// Store answers the two questions the generator needs: the highest existing
// sequence for a prefix, and whether a candidate ID is already taken.
type Store interface {
	MaxSequence(ctx context.Context, prefix string) (int64, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Generator issues identifiers backed by a Store. The sequential policy is
// not safe against concurrent generators on its own: the storage layer's
// uniqueness constraint rejects the duplicate insert and the caller retries
// with the next number.
type Generator struct {
	store Store

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(store Store) *Generator {
	return &Generator{
		store: store,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next produces the next identifier for the kind.
func (g *Generator) Next(ctx context.Context, kind Kind) (string, error) {
	if kind.Sequential {
		return g.nextSequential(ctx, kind)
	}
	return g.nextRandom(ctx, kind)
}

func (g *Generator) nextSequential(ctx context.Context, kind Kind) (string, error) {
	max, err := g.store.MaxSequence(ctx, kind.Prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read %s sequence: %w", kind.Prefix, err)
	}
	return Format(kind, max+1), nil
}

func (g *Generator) nextRandom(ctx context.Context, kind Kind) (string, error) {
	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		g.mu.Lock()
		n := g.rnd.Int63n(randomRange)
		g.mu.Unlock()

		id := fmt.Sprintf("%s-%06d", kind.Prefix, n)
		taken, err := g.store.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to probe %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrExhausted
}

// Format renders a sequential identifier, zero-padded to four digits.
func Format(kind Kind, n int64) string {
	return fmt.Sprintf("%s-%0*d", kind.Prefix, sequenceWidth, n)
}

// ParseSequence extracts the numeric suffix of an identifier with the kind's
// prefix. It returns false for IDs of another kind or malformed suffixes.
func ParseSequence(kind Kind, id string) (int64, bool) {
	prefix := kind.Prefix + "-"
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
