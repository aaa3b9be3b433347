package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	logger := zerolog.Nop()

	s, err := Open(dir, &logger)
	require.NoError(t, err)

	return s, dir
}

func reopen(t *testing.T, dir string) *Store {
	t.Helper()

	logger := zerolog.Nop()

	s, err := Open(dir, &logger)
	require.NoError(t, err)

	return s
}

func TestProcessedRoundTrip(t *testing.T) {
	s, dir := newTestStore(t)

	require.NoError(t, s.MarkProcessed("chan_1_100_2048_10"))
	require.NoError(t, s.MarkProcessed("chan_2_200_4096_20"))

	assert.True(t, s.IsProcessed("chan_1_100_2048_10"))
	assert.False(t, s.IsProcessed("chan_3_300_0_0"))

	// Membership survives a reload from disk.
	s2 := reopen(t, dir)
	assert.True(t, s2.IsProcessed("chan_1_100_2048_10"))
	assert.True(t, s2.IsProcessed("chan_2_200_4096_20"))
	assert.False(t, s2.IsProcessed("chan_3_300_0_0"))
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	s, dir := newTestStore(t)

	require.NoError(t, s.MarkProcessed("fp"))
	require.NoError(t, s.MarkProcessed("fp"))

	s2 := reopen(t, dir)
	assert.Len(t, s2.processedList, 1)
}

func TestLegacyBareArrayProcessed(t *testing.T) {
	dir := t.TempDir()

	legacy := []string{"fp_a", "fp_b"}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "processed_videos.json"), data, 0o644))

	s := reopen(t, dir)
	assert.True(t, s.IsProcessed("fp_a"))
	assert.True(t, s.IsProcessed("fp_b"))
	assert.False(t, s.IsProcessed("fp_c"))
}

func TestLegacyAndStructuredShapesAreEquivalent(t *testing.T) {
	legacyDir := t.TempDir()
	structuredDir := t.TempDir()

	ids := []string{"fp_a", "fp_b", "fp_c"}

	legacyData, err := json.Marshal(ids)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "processed_videos.json"), legacyData, 0o644))

	structuredData, err := json.Marshal(map[string]any{
		"lastUpdated":    "2024-01-01T00:00:00Z",
		"totalProcessed": len(ids),
		"videos":         ids,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(structuredDir, "processed_videos.json"), structuredData, 0o644))

	legacyStore := reopen(t, legacyDir)
	structuredStore := reopen(t, structuredDir)

	for _, id := range ids {
		assert.Equal(t, legacyStore.IsProcessed(id), structuredStore.IsProcessed(id))
		assert.True(t, legacyStore.IsProcessed(id))
	}
}

func TestFailedMixedEncodings(t *testing.T) {
	dir := t.TempDir()

	// One legacy bare fingerprint intermixed with a structured
	// JSON-encoded record.
	entries := []string{
		"legacy_fp_1_0_0_0",
		`{"videoId":"structured_fp_2_0_0_0","reason":"size_exceeded","timestamp":"2024-01-01T00:00:00Z","error":"file is too big"}`,
	}
	data, err := json.Marshal(map[string]any{
		"lastUpdated": "2024-01-01T00:00:00Z",
		"totalFailed": len(entries),
		"videos":      entries,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failed_videos.json"), data, 0o644))

	s := reopen(t, dir)
	assert.True(t, s.IsFailed("legacy_fp_1_0_0_0"))
	assert.True(t, s.IsFailed("structured_fp_2_0_0_0"))
	assert.False(t, s.IsFailed("other_fp"))
}

func TestMarkFailedWritesStructuredRecord(t *testing.T) {
	s, dir := newTestStore(t)

	require.NoError(t, s.MarkFailed("fp_x", "duration_exceeded", "video longer than 140 seconds"))
	assert.True(t, s.IsFailed("fp_x"))

	s2 := reopen(t, dir)
	assert.True(t, s2.IsFailed("fp_x"))

	require.Len(t, s2.failedEntries, 1)

	var record FailedRecord
	require.NoError(t, json.Unmarshal([]byte(s2.failedEntries[0]), &record))
	assert.Equal(t, "fp_x", record.VideoID)
	assert.Equal(t, "duration_exceeded", record.Reason)
	assert.Equal(t, "video longer than 140 seconds", record.Error)
	assert.NotEmpty(t, record.Timestamp)
}

func TestMarkFailedToleratesDuplicates(t *testing.T) {
	s, dir := newTestStore(t)

	require.NoError(t, s.MarkFailed("fp_x", "forbidden", ""))
	require.NoError(t, s.MarkFailed("fp_x", "forbidden", ""))

	s2 := reopen(t, dir)
	assert.True(t, s2.IsFailed("fp_x"))
	// Duplicate appends are preserved, not collapsed.
	assert.Len(t, s2.failedEntries, 2)
}

func TestCursorRoundTripAndMonotonicity(t *testing.T) {
	s, dir := newTestStore(t)

	assert.Equal(t, 0, s.LoadCursor().Offset)

	require.NoError(t, s.SaveCursor(50))
	assert.Equal(t, 50, s.LoadCursor().Offset)

	// Backwards moves are ignored.
	require.NoError(t, s.SaveCursor(10))
	assert.Equal(t, 50, s.LoadCursor().Offset)

	s2 := reopen(t, dir)
	assert.Equal(t, 50, s2.LoadCursor().Offset)

	require.NoError(t, s2.SaveCursor(100))
	assert.Equal(t, 100, s2.LoadCursor().Offset)
}

func TestMalformedFilesFallBackToEmpty(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "processed_videos.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failed_videos.json"), []byte("also not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan_cursor.json"), []byte("[]"), 0o644))

	s := reopen(t, dir)
	assert.False(t, s.IsProcessed("anything"))
	assert.False(t, s.IsFailed("anything"))
	assert.Equal(t, 0, s.LoadCursor().Offset)

	// The store stays writable after a degraded load.
	require.NoError(t, s.MarkProcessed("fp_new"))
	assert.True(t, reopen(t, dir).IsProcessed("fp_new"))
}
