package results

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(block domain.Block, idx int, cond domain.Condition, resp domain.Response, rt int64) domain.TrialRecord {
	r := domain.TrialRecord{
		Trial:         domain.NewTrialSpec(cond, 60, 60, true),
		Block:         block,
		SequenceIndex: idx,
		Response:      resp,
		Timestamp:     at,
	}
	r.Correct = resp == r.Trial.ExpectedResponse()
	if resp != domain.ResponseNone {
		r.ReactionTimeMs = &rt
	}
	return r
}

func TestSummarize(t *testing.T) {
	records := []domain.TrialRecord{
		// Practice never counts.
		rec(domain.BlockPractice, 1, domain.ConditionSame, domain.ResponseMirror, 100),
		rec(domain.BlockMain, 1, domain.ConditionSame, domain.ResponseSame, 800),
		rec(domain.BlockMain, 2, domain.ConditionMirror, domain.ResponseSame, 1001),
		rec(domain.BlockMain, 3, domain.ConditionMirror, domain.ResponseMirror, 1200),
		// Timeouts are excluded from both accuracy and RT.
		rec(domain.BlockMain, 4, domain.ConditionSame, domain.ResponseNone, 0),
	}

	s := Summarize(records, 4, at)
	assert.Equal(t, 4, s.TotalMainTrials)
	assert.Equal(t, 3, s.AnsweredMainTrials)
	assert.Equal(t, 2, s.CorrectMainTrials)
	require.NotNil(t, s.AccuracyPercent)
	assert.Equal(t, 66.7, *s.AccuracyPercent)
	require.NotNil(t, s.MeanReactionTimeMs)
	assert.Equal(t, int64(1000), *s.MeanReactionTimeMs)
	assert.Equal(t, at, s.Timestamp)
}

func TestSummarize_NothingAnswered(t *testing.T) {
	records := []domain.TrialRecord{
		rec(domain.BlockMain, 1, domain.ConditionSame, domain.ResponseNone, 0),
	}
	s := Summarize(records, 1, at)
	assert.Equal(t, 0, s.AnsweredMainTrials)
	assert.Nil(t, s.AccuracyPercent)
	assert.Nil(t, s.MeanReactionTimeMs)
}

func TestWriteCSV(t *testing.T) {
	records := []domain.TrialRecord{
		rec(domain.BlockMain, 1, domain.ConditionMirror, domain.ResponseMirror, 950),
		rec(domain.BlockMain, 2, domain.ConditionSame, domain.ResponseNone, 0),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{
		"main", "1", "mirror", "60", "60", "1", "60", "0", "0",
		"mirror", "mirror", "1", "950", "2026-03-01T12:00:00Z",
	}, rows[1])
	// Timeouts export an empty reaction time.
	assert.Equal(t, "none", rows[2][9])
	assert.Equal(t, "same", rows[2][10])
	assert.Equal(t, "0", rows[2][11])
	assert.Equal(t, "", rows[2][12])
}

func TestJSONL_RoundTrip(t *testing.T) {
	records := []domain.TrialRecord{
		rec(domain.BlockPractice, 1, domain.ConditionSame, domain.ResponseSame, 640),
		rec(domain.BlockMain, 1, domain.ConditionMirror, domain.ResponseNone, 0),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, records))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, buf.String(), `"rt_ms":null`)

	got, err := ReadJSONL(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadJSONL_Malformed(t *testing.T) {
	_, err := ReadJSONL(bytes.NewBufferString("{\"block\":\"main\"}\n{oops"))
	assert.Error(t, err)
}
