package report

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ashureev/neurosync/internal/domain"
	"github.com/ashureev/neurosync/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return time.UnixMilli(1700000000000).UTC() }

func newTestGenerator() *Generator {
	return NewGenerator(WithCompression(false), WithClock(fixedClock))
}

func TestGenerateEmptyEntries(t *testing.T) {
	pdf, err := newTestGenerator().Generate(context.Background(), "P1", nil)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")), "expected PDF header")
	assert.Contains(t, string(pdf), "NeuroSync Weekly Report")
	assert.Contains(t, string(pdf), "Patient ID: P1")
	assert.Contains(t, string(pdf), "No logs recorded for this period.")
	assert.Contains(t, string(pdf), "Generated on: Nov 14, 2023 10:13 PM UTC")
	assert.NotContains(t, string(pdf), "Entry #")
}

func TestGenerateOneBlockPerEntryInOrder(t *testing.T) {
	entries := []domain.LogEntry{
		{Mood: "happy", Notes: "Enjoyed the garden walk", Timestamp: 1700000000000},
		{Mood: "anxious", Timestamp: 1700003600000},
		{Mood: "calm", Notes: "Slept early"},
	}

	pdf, err := newTestGenerator().Generate(context.Background(), "P1", entries)
	require.NoError(t, err)
	body := string(pdf)

	assert.Equal(t, len(entries), bytes.Count(pdf, []byte("Entry #")))
	assert.NotContains(t, body, "No logs recorded")

	last := -1
	for i, e := range entries {
		idx := bytes.Index(pdf, []byte(fmt.Sprintf("Entry #%d", i+1)))
		require.Greater(t, idx, last, "entry %d out of order", i+1)
		moodIdx := bytes.Index(pdf[idx:], []byte("Mood: "+e.Mood))
		require.GreaterOrEqual(t, moodIdx, 0, "mood for entry %d missing", i+1)
		last = idx
	}

	assert.Contains(t, body, "Entry #1 - Nov 14, 2023 10:13 PM")
	assert.Contains(t, body, "Notes: Enjoyed the garden walk")
	assert.Contains(t, body, "Notes: No notes provided.")
	assert.Contains(t, body, "Entry #3 - N/A")
}

func TestGenerateMissingMoodPlaceholder(t *testing.T) {
	pdf, err := newTestGenerator().Generate(context.Background(), "P9", []domain.LogEntry{{Notes: "skipped lunch"}})
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "Mood: N/A")
}

func TestGenerateIsDeterministicApartFromClock(t *testing.T) {
	entries := []domain.LogEntry{{Mood: "happy", Timestamp: 1700000000000}}
	g := newTestGenerator()

	a, err := g.Generate(context.Background(), "P1", entries)
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), "P1", entries)
	require.NoError(t, err)

	assert.Equal(t, bytes.Count(a, []byte("Entry #")), bytes.Count(b, []byte("Entry #")))
	assert.Contains(t, string(b), "Mood: happy")
}

func TestGenerateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pdf, err := newTestGenerator().Generate(ctx, "P1", nil)
	require.Error(t, err)
	assert.Nil(t, pdf)
	assert.True(t, shared.IsKind(err, shared.KindRender))
}

func TestGenerateCompressedStillValid(t *testing.T) {
	pdf, err := NewGenerator().Generate(context.Background(), "P1", []domain.LogEntry{{Mood: "ok"}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.True(t, bytes.Contains(pdf, []byte("%%EOF")))
}

func TestGenerateInLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	g := NewGenerator(WithCompression(false), WithClock(fixedClock), WithLocation(est))

	pdf, err := g.Generate(context.Background(), "P1", []domain.LogEntry{{Mood: "calm", Timestamp: 1700000000000}})
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "Generated on: Nov 14, 2023 5:13 PM EST")
	assert.Contains(t, string(pdf), "Entry #1 - Nov 14, 2023 5:13 PM")

	// A nil location keeps the UTC default.
	pdf, err = NewGenerator(WithCompression(false), WithClock(fixedClock), WithLocation(nil)).Generate(context.Background(), "P1", nil)
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "Generated on: Nov 14, 2023 10:13 PM UTC")
}

func TestGenerateCoreFontEncoding(t *testing.T) {
	pdf, err := newTestGenerator().Generate(context.Background(), "P1", []domain.LogEntry{
		{Mood: "café"},
		{Mood: "😊 calm"},
	})
	require.NoError(t, err)

	// Latin-1 text is encoded for the core font; other runes are replaced.
	assert.Contains(t, string(pdf), "Mood: caf\xe9")
	assert.Contains(t, string(pdf), "Mood: . calm")
}
