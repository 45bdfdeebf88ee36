package idgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	maxByPrefix map[string]int64
	taken       map[string]bool
	allTaken    bool
	probes      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		maxByPrefix: make(map[string]int64),
		taken:       make(map[string]bool),
	}
}

func (s *fakeStore) MaxSequence(ctx context.Context, prefix string) (int64, error) {
	return s.maxByPrefix[prefix], nil
}

func (s *fakeStore) Exists(ctx context.Context, id string) (bool, error) {
	s.probes++
	return s.allTaken || s.taken[id], nil
}

func TestNextSequential_FirstValue(t *testing.T) {
	store := newFakeStore()
	gen := New(store)

	id, err := gen.Next(context.Background(), Loan)
	require.NoError(t, err)
	assert.Equal(t, "LO-0001", id)
}

func TestNextSequential_Increments(t *testing.T) {
	store := newFakeStore()
	store.maxByPrefix["LO"] = 41
	gen := New(store)

	id, err := gen.Next(context.Background(), Loan)
	require.NoError(t, err)
	assert.Equal(t, "LO-0042", id)
}

func TestNextSequential_GuarantorPrefix(t *testing.T) {
	store := newFakeStore()
	store.maxByPrefix["GR"] = 7
	gen := New(store)

	id, err := gen.Next(context.Background(), Guarantor)
	require.NoError(t, err)
	assert.Equal(t, "GR-0008", id)
}

func TestNextRandom_SkipsTakenIDs(t *testing.T) {
	store := newFakeStore()
	gen := New(store)

	first, err := gen.Next(context.Background(), Payment)
	require.NoError(t, err)

	// The first ID is taken now; the generator must probe past it.
	store.taken[first] = true
	second, err := gen.Next(context.Background(), Payment)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestNextRandom_ExhaustedAfterBoundedAttempts(t *testing.T) {
	store := newFakeStore()
	gen := New(store)

	// Every probe reports the candidate as taken.
	store.allTaken = true

	_, err := gen.Next(context.Background(), Payment)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 25, store.probes)
}

func TestFormat_ZeroPadding(t *testing.T) {
	assert.Equal(t, "LO-0001", Format(Loan, 1))
	assert.Equal(t, "LO-0123", Format(Loan, 123))
	assert.Equal(t, "LO-12345", Format(Loan, 12345))
}

func TestParseSequence(t *testing.T) {
	n, ok := ParseSequence(Loan, "LO-0042")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = ParseSequence(Loan, "GR-0042")
	assert.False(t, ok)

	_, ok = ParseSequence(Loan, "LO-xyz")
	assert.False(t, ok)
}
