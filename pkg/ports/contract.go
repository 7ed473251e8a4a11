package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newState := func(id string) *domain.SessionState {
		s := domain.NewSessionState(id, domain.Identity{ParticipantID: "P7", SessionCode: "XY"}, 2081)
		s.Practice = []domain.TrialSpec{domain.NewTrialSpec(domain.ConditionSame, 30, 30, false)}
		s.Main = []domain.TrialSpec{
			domain.NewTrialSpec(domain.ConditionMirror, 0, 180, true),
			domain.NewTrialSpec(domain.ConditionSame, 90, 90, false),
		}
		return s
	}

	t.Run("Save and Load", func(t *testing.T) {
		state := newState(sessionID)
		rt := int64(812)
		state.Phase = domain.PhaseInterTrial
		state.Token = 9
		state.Records = append(state.Records, domain.TrialRecord{
			Trial:          state.Practice[0],
			Block:          domain.BlockPractice,
			SequenceIndex:  1,
			Response:       domain.ResponseSame,
			Correct:        true,
			ReactionTimeMs: &rt,
			Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Identity, loaded.Identity)
		assert.Equal(t, state.Seed, loaded.Seed)
		assert.Equal(t, state.Phase, loaded.Phase)
		assert.Equal(t, state.Token, loaded.Token)
		assert.Equal(t, state.Main, loaded.Main)
		require.Len(t, loaded.Records, 1)
		assert.Equal(t, int64(812), *loaded.Records[0].ReactionTimeMs)
		assert.True(t, state.Records[0].Timestamp.Equal(loaded.Records[0].Timestamp))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newState(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newState(id1))
		_ = store.Save(ctx, id2, newState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
