package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/adapters/sqlite"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.Sink       = (*sqlite.Backend)(nil)
	_ ports.StateStore = (*sqlite.Backend)(nil)
)

func openTemp(t *testing.T) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.Open(filepath.Join(t.TempDir(), "data", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_StateStoreContract(t *testing.T) {
	ports.RunStateStoreContract(t, openTemp(t))
}

func TestBackend_TrialsRoundTrip(t *testing.T) {
	b := openTemp(t)
	ctx := context.Background()
	ts := time.Date(2026, 4, 1, 12, 0, 0, 123000000, time.UTC)
	rt := int64(901)

	main := domain.TrialRecord{
		Trial: domain.NewTrialSpec(domain.ConditionMirror, 0, 180, true), Block: domain.BlockMain,
		SequenceIndex: 1, Response: domain.ResponseMirror, Correct: true, ReactionTimeMs: &rt, Timestamp: ts,
	}
	practice := domain.TrialRecord{
		Trial: domain.NewTrialSpec(domain.ConditionSame, 30, 30, false), Block: domain.BlockPractice,
		SequenceIndex: 2, Response: domain.ResponseNone, Timestamp: ts,
	}

	for _, r := range []domain.TrialRecord{main, practice} {
		require.NoError(t, b.Submit(ctx, domain.Envelope{Action: domain.EnvelopeTrial, SessionID: "s1", Version: "v", Record: &r}))
	}
	// A retried submission replaces the row.
	require.NoError(t, b.Submit(ctx, domain.Envelope{Action: domain.EnvelopeTrial, SessionID: "s1", Version: "v", Record: &main}))

	got, err := b.Records(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, practice, got[0])
	assert.Equal(t, main, got[1])
	assert.Nil(t, got[0].ReactionTimeMs)
	assert.Equal(t, 180, got[1].Trial.AngleDifference)
}

func TestBackend_Summary(t *testing.T) {
	b := openTemp(t)
	ctx := context.Background()
	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	_, err := b.Summary(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	empty := domain.SessionSummary{TotalMainTrials: 140, Timestamp: ts}
	require.NoError(t, b.Submit(ctx, domain.Envelope{Action: domain.EnvelopeSummary, SessionID: "s1", Summary: &empty}))
	got, err := b.Summary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, empty, got)

	acc, rt := 66.7, int64(1000)
	full := domain.SessionSummary{TotalMainTrials: 140, AnsweredMainTrials: 3, CorrectMainTrials: 2, AccuracyPercent: &acc, MeanReactionTimeMs: &rt, Timestamp: ts}
	require.NoError(t, b.Submit(ctx, domain.Envelope{Action: domain.EnvelopeSummary, SessionID: "s1", Summary: &full}))
	got, err = b.Summary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, full, got)
}

func TestBackend_RejectsEmptyEnvelope(t *testing.T) {
	b := openTemp(t)
	assert.Error(t, b.Submit(context.Background(), domain.Envelope{Action: "noop"}))
}

func TestBackend_InMemory(t *testing.T) {
	b, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Save(context.Background(), "x", domain.NewSessionState("x", domain.Identity{}, 1)))
	ids, err := b.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
}
