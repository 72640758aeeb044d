package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompteng/teleprompt/pkg/optimizers"
)

func openTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	rounds := []optimizers.RoundRecord{
		{Round: 0, BestScore: 0.5, TrajectoriesSample: 24, BucketsActionable: 3, CandidatesProduced: 2, CandidatesAdmitted: 2, Duration: 120 * time.Millisecond},
		{Round: 1, BestScore: 0.8, TrajectoriesSample: 24, BucketsActionable: 1, CandidatesProduced: 1, CandidatesAdmitted: 1, Duration: 95 * time.Millisecond},
	}
	for _, record := range rounds {
		require.NoError(t, j.RecordRound(ctx, "run-a", record))
	}

	stored, err := j.Rounds(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, rounds, stored)
}

func TestJournalCandidates(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first := optimizers.CandidateRecord{Round: 0, VariantID: "v1", Generation: 1, Strategy: "append_demonstration", Score: 0.7}
	second := optimizers.CandidateRecord{Round: 1, VariantID: "v2", Generation: 2, Strategy: "append_instruction_rule", Score: 0.9}
	require.NoError(t, j.RecordCandidate(ctx, "run-a", first))
	require.NoError(t, j.RecordCandidate(ctx, "run-a", second))

	stored, err := j.Candidates(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, []optimizers.CandidateRecord{first, second}, stored)
}

func TestJournalIsolatesRuns(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordRound(ctx, "run-a", optimizers.RoundRecord{Round: 0, BestScore: 0.5}))
	require.NoError(t, j.RecordRound(ctx, "run-b", optimizers.RoundRecord{Round: 0, BestScore: 0.9}))

	a, err := j.Rounds(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.InDelta(t, 0.5, a[0].BestScore, 1e-9)

	missing, err := j.Rounds(ctx, "run-missing")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestJournalRewriteReplacesRound(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordRound(ctx, "run-a", optimizers.RoundRecord{Round: 0, BestScore: 0.2}))
	require.NoError(t, j.RecordRound(ctx, "run-a", optimizers.RoundRecord{Round: 0, BestScore: 0.4}))

	stored, err := j.Rounds(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.4, stored[0].BestScore, 1e-9)
}
