package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silencecut/silencecut/internal/plan"
	"github.com/silencecut/silencecut/internal/silence"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "plans.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.BuildFromSilences(
		[]silence.Interval{{Start: 1, End: 2}}, 10.0, plan.DefaultParams())
	require.NoError(t, err)
	return p
}

func TestStore_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	p := testPlan(t)

	_, ok, err := s.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, ok, "expected miss on empty store")

	require.NoError(t, s.Put(ctx, "fp-1", "/videos/talk.mp4", p))

	got, ok, err := s.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.SourceDuration, got.SourceDuration)
	assert.Equal(t, p.Keeps, got.Keeps)
	assert.Equal(t, p.Removes, got.Removes)
}

func TestStore_PutReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := testPlan(t)
	require.NoError(t, s.Put(ctx, "fp", "/a.mp4", first))

	params := plan.DefaultParams()
	params.PadSec = 0.5
	second, err := plan.BuildFromSilences(
		[]silence.Interval{{Start: 3, End: 4}}, 20.0, params)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "fp", "/a.mp4", second))

	got, ok, err := s.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20.0, got.SourceDuration)
}

func TestStore_InvalidateSource(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	p := testPlan(t)

	require.NoError(t, s.Put(ctx, "fp-a", "/a.mp4", p))
	require.NoError(t, s.Put(ctx, "fp-b", "/b.mp4", p))
	require.NoError(t, s.InvalidateSource(ctx, "/a.mp4"))

	_, ok, err := s.Get(ctx, "fp-a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get(ctx, "fp-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.db")
	s1, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.mp4")
	require.NoError(t, os.WriteFile(file, []byte("media"), 0o644))

	params := plan.DefaultParams()

	fp1, err := Fingerprint(file, params)
	require.NoError(t, err)
	fp2, err := Fingerprint(file, params)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2, "fingerprint must be stable")

	// Different parameters change the key.
	params.PadSec = 0.2
	fp3, err := Fingerprint(file, params)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)

	// A modified file changes the key.
	require.NoError(t, os.WriteFile(file, []byte("media+extra"), 0o644))
	require.NoError(t, os.Chtimes(file, time.Now(), time.Now().Add(time.Second)))
	fp4, err := Fingerprint(file, plan.DefaultParams())
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp4)

	_, err = Fingerprint(filepath.Join(dir, "missing.mp4"), params)
	assert.Error(t, err)
}
