package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/results"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(config.Default(), WithClock(func() time.Time {
		return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	return s
}

func TestNewServer_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Angles = nil
	_, err := NewServer(cfg)
	assert.ErrorIs(t, err, config.ErrEmptyAngleSet)
}

func TestPlanTrials(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	t.Run("Deterministic", func(t *testing.T) {
		a, err := s.handlePlan(ctx, mcp.CallToolRequest{}, PlanArgs{ParticipantID: "P-7"})
		require.NoError(t, err)
		b, err := s.handlePlan(ctx, mcp.CallToolRequest{}, PlanArgs{ParticipantID: "P-7"})
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a.Practice, 10)
		assert.Len(t, a.Main, 140)
		assert.Equal(t, 140, a.Same+a.Mirror)
	})

	t.Run("Session Code Wins", func(t *testing.T) {
		plan, err := s.handlePlan(ctx, mcp.CallToolRequest{}, PlanArgs{ParticipantID: "P-7", SessionCode: "xyz"})
		require.NoError(t, err)
		assert.Equal(t, "XYZ", plan.SeedKey)
	})

	t.Run("Overrides", func(t *testing.T) {
		plan, err := s.handlePlan(ctx, mcp.CallToolRequest{}, PlanArgs{
			ParticipantID: "P-7",
			Overrides:     `{"angles":[0,60],"repetitions_per_angle":2,"practice_trials":4}`,
		})
		require.NoError(t, err)
		assert.Len(t, plan.Practice, 4)
		assert.Len(t, plan.Main, 8)
	})

	t.Run("Bad Overrides", func(t *testing.T) {
		_, err := s.handlePlan(ctx, mcp.CallToolRequest{}, PlanArgs{ParticipantID: "P-7", Overrides: `{"bogus":1}`})
		assert.ErrorIs(t, err, config.ErrInvalidOverride)
	})

	t.Run("Missing Identity", func(t *testing.T) {
		_, err := s.handlePlan(ctx, mcp.CallToolRequest{}, PlanArgs{})
		assert.ErrorIs(t, err, ErrMissingIdentity)
	})
}

func TestScoreResponse(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		args     ScoreArgs
		ignored  bool
		response domain.Response
		correct  bool
		feedback string
	}{
		{"Same Correct", ScoreArgs{Condition: domain.ConditionSame, Input: "F"}, false, domain.ResponseSame, true, domain.FeedbackCorrect},
		{"Mirror Wrong", ScoreArgs{Condition: domain.ConditionMirror, Input: "f"}, false, domain.ResponseSame, false, domain.FeedbackIncorrect},
		{"Control Identity", ScoreArgs{Condition: domain.ConditionMirror, Input: domain.ControlMirror}, false, domain.ResponseMirror, true, domain.FeedbackCorrect},
		{"Unmapped", ScoreArgs{Condition: domain.ConditionSame, Input: "x"}, true, "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.handleScore(ctx, mcp.CallToolRequest{}, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.ignored, got.Ignored)
			assert.Equal(t, tt.response, got.Response)
			assert.Equal(t, tt.correct, got.Correct)
			if tt.feedback != "" {
				require.NotNil(t, got.Feedback)
				assert.Equal(t, tt.feedback, got.Feedback.Text)
			}
		})
	}

	_, err := s.handleScore(ctx, mcp.CallToolRequest{}, ScoreArgs{Condition: "sideways", Input: "f"})
	assert.Error(t, err)
}

func TestSummarizeResults(t *testing.T) {
	s := newServer(t)
	rt := int64(800)
	records := []domain.TrialRecord{
		{Block: domain.BlockPractice, Response: domain.ResponseSame, Correct: true, ReactionTimeMs: &rt},
		{Block: domain.BlockMain, Response: domain.ResponseSame, Correct: true, ReactionTimeMs: &rt},
		{Block: domain.BlockMain, Response: domain.ResponseNone},
	}
	var buf strings.Builder
	require.NoError(t, results.WriteJSONL(&buf, records))

	sum, err := s.handleSummarize(context.Background(), mcp.CallToolRequest{}, SummaryArgs{Records: buf.String()})
	require.NoError(t, err)
	assert.Equal(t, 140, sum.TotalMainTrials)
	assert.Equal(t, 1, sum.AnsweredMainTrials)
	require.NotNil(t, sum.AccuracyPercent)
	assert.Equal(t, 100.0, *sum.AccuracyPercent)

	_, err = s.handleSummarize(context.Background(), mcp.CallToolRequest{}, SummaryArgs{Records: "{not json"})
	assert.Error(t, err)
}

func TestToolsList(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`))
	resp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"plan_trials", "score_response", "summarize_results", "describe_config"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}
