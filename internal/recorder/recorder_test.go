package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbtools/apitest/internal/harness"
)

func sampleResult() *harness.Result {
	r := harness.NewResult()
	r.Pass = false
	r.Passed = 1
	r.Failed = 1
	r.Total = 2
	r.Suites = []string{"data", "trade"}
	r.Cases = []harness.CaseResult{
		{Suite: "data", Case: "snapshot", Pass: true, Seq: 1, Elapsed: 120 * time.Millisecond},
		{Suite: "trade", Case: "place_order", Pass: false, Detail: "order rejected", Seq: 2, Elapsed: 45 * time.Millisecond},
	}
	return r
}

func TestOpen_InMemory(t *testing.T) {
	rec, err := Open(":memory:")
	require.NoError(t, err)
	defer rec.Close()

	runs, err := rec.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpen_FileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	rec, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	// Reopening applies the schema again without error.
	rec, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, rec.Close())
}

func TestRecord_RoundTrip(t *testing.T) {
	rec, err := Open(":memory:")
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	started := time.Now().Add(-time.Second)

	runID, err := rec.Record(ctx, []string{"data", "trade"}, started, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := rec.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "data,trade", runs[0].Selection)
	assert.False(t, runs[0].Pass)
	assert.Equal(t, 1, runs[0].Passed)
	assert.Equal(t, 1, runs[0].Failed)
	assert.Equal(t, 2, runs[0].Total)

	cases, err := rec.CaseResults(ctx, runID)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "snapshot", cases[0].Case)
	assert.True(t, cases[0].Pass)
	assert.Equal(t, int64(1), cases[0].Seq)
	assert.Equal(t, "place_order", cases[1].Case)
	assert.Equal(t, "order rejected", cases[1].Detail)
	assert.Equal(t, 45*time.Millisecond, cases[1].Elapsed)
}

func TestRecord_MultipleRunsDistinctIDs(t *testing.T) {
	rec, err := Open(":memory:")
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	id1, err := rec.Record(ctx, []string{"api"}, time.Now(), harness.NewResult())
	require.NoError(t, err)
	id2, err := rec.Record(ctx, []string{"api"}, time.Now(), harness.NewResult())
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)

	runs, err := rec.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestCaseResults_UnknownRun(t *testing.T) {
	rec, err := Open(":memory:")
	require.NoError(t, err)
	defer rec.Close()

	cases, err := rec.CaseResults(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, cases)
}
