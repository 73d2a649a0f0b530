package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/huangsam/hypolog/internal/datastore"
	"github.com/huangsam/hypolog/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var engineNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// sequentialIDs returns an ID generator yielding id-1, id-2 and so on.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestEngine returns an engine over a fresh memory store and a movable clock.
func newTestEngine(opts ...EngineOption) (*Engine, *datastore.MemoryStore, *time.Time) {
	store := datastore.NewMemoryStore()
	now := engineNow
	base := []EngineOption{
		WithClock(func() time.Time { return now }),
		WithIDGenerator(sequentialIDs()),
	}
	return NewEngine(NewDefaultRuleParser(), store, append(base, opts...)...), store, &now
}

func TestEngine_CreateHypothesis(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine()

	h, err := engine.CreateHypothesis(ctx, NewHypothesisInput{
		Question: "  Does meditation help reduce my stress?  ",
		Controls: []ControlInput{{Name: "Caffeine", Type: schema.NumericVariable, Additive: true}, {Name: "  "}},
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", h.ID)
	assert.Equal(t, "Does meditation help reduce my stress?", h.Question)
	assert.Equal(t, schema.ActiveStatus, h.Status)
	require.NotNil(t, h.Parsed)
	assert.Equal(t, "meditation", h.Parsed.Intervention)
	assert.Equal(t, "stress", h.Parsed.Outcome)
	assert.Equal(t, schema.EmotionalCategory, h.Parsed.Category)

	require.Len(t, h.Variables, 3)
	assert.Equal(t, "Meditation", h.Variables[0].Name)
	assert.Equal(t, schema.BinaryVariable, h.Variables[0].Type)
	assert.Equal(t, "Stress", h.Variables[1].Name)
	assert.Equal(t, schema.ScaleVariable, h.Variables[1].Type)
	assert.True(t, h.Variables[2].IsControl)
	assert.True(t, h.Variables[2].Additive)
	assert.Equal(t, schema.NumericVariable, h.Variables[2].Type)

	require.NotNil(t, h.Baseline)
	assert.Equal(t, engineNow.Add(7*24*time.Hour), h.Baseline.EndDate)
	assert.Nil(t, h.InterventionStart)

	stored, err := store.LoadHypotheses(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, h.ID, stored[0].ID)
	assert.Len(t, stored[0].Variables, 3)
}

func TestEngine_CreateHypothesisOverrides(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(WithBaselineDays(14))

	h, err := engine.CreateHypothesis(ctx, NewHypothesisInput{
		Question:         "Is there something about long walks?",
		Intervention:     "Long Walks",
		Outcome:          "Mood",
		InterventionType: schema.NumericVariable,
		PreferredTime:    schema.EveningTime,
	})
	require.NoError(t, err)
	assert.Equal(t, "long walks", h.Parsed.Intervention)
	assert.Equal(t, "mood", h.Parsed.Outcome)
	assert.Equal(t, "Long walks", h.Variables[0].Name)
	assert.Equal(t, schema.NumericVariable, h.Variables[0].Type)
	assert.Equal(t, schema.EveningTime, h.Variables[1].PreferredTime)
	assert.Equal(t, engineNow.Add(14*24*time.Hour), h.Baseline.EndDate)

	skipped, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "does yoga help my sleep", SkipBaseline: true})
	require.NoError(t, err)
	assert.Nil(t, skipped.Baseline)
	require.NotNil(t, skipped.InterventionStart)
	assert.Equal(t, engineNow, *skipped.InterventionStart)

	_, err = engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestEngine_GetHypothesis(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(WithIDGenerator(func() func() string {
		ids := []string{"abc111", "v1", "v2", "abc222", "v3", "v4"}
		i := 0
		return func() string { i++; return ids[i-1] }
	}()))
	_, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "does coffee improve my focus"})
	require.NoError(t, err)
	_, err = engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "does tea improve my focus"})
	require.NoError(t, err)

	h, err := engine.GetHypothesis(ctx, "abc222")
	require.NoError(t, err)
	assert.Equal(t, "abc222", h.ID)

	h, err = engine.GetHypothesis(ctx, "abc1")
	require.NoError(t, err)
	assert.Equal(t, "abc111", h.ID)

	_, err = engine.GetHypothesis(ctx, "abc")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
	assert.ErrorContains(t, err, "ambiguous")

	_, err = engine.GetHypothesis(ctx, "zzz")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)

	_, err = engine.GetHypothesis(ctx, "")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
}

func TestEngine_ListAndArchive(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine()

	first, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "does running improve my mood"})
	require.NoError(t, err)
	_, err = engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "does journaling reduce anxiety"})
	require.NoError(t, err)

	archived, err := engine.ArchiveHypothesis(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.ArchivedStatus, archived.Status)

	active, err := engine.ListHypotheses(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.NotEqual(t, first.ID, active[0].ID)

	all, err := engine.ListHypotheses(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	again, err := engine.ArchiveHypothesis(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.ArchivedStatus, again.Status)
}

func TestEngine_BaselineLifecycle(t *testing.T) {
	ctx := context.Background()
	engine, _, now := newTestEngine(WithBaselineDays(3))

	h, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "does sunlight improve my energy"})
	require.NoError(t, err)

	_, phase, days, err := engine.BaselineStatus(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.BaselineActive, phase)
	assert.Equal(t, 3, days)

	*now = now.Add(3*24*time.Hour + time.Minute)
	_, phase, days, err = engine.BaselineStatus(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.BaselineComplete, phase)
	assert.Zero(t, days)

	completed, err := engine.CompleteBaseline(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, completed.Baseline.Completed)
	require.NotNil(t, completed.InterventionStart)
	assert.Equal(t, completed.Baseline.EndDate, *completed.InterventionStart)

	stored, err := engine.GetHypothesis(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, stored.Baseline.Completed)
}

func TestEngine_LogValueFansOut(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine()

	h1, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does magnesium improve my sleep quality?"})
	require.NoError(t, err)
	h2, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does reading improve my sleep?"})
	require.NoError(t, err)

	merged, err := engine.ActiveVariables(ctx)
	require.NoError(t, err)
	card, ok := FindMerged(merged, "sleep")
	require.True(t, ok)
	assert.Equal(t, []string{h1.Variables[1].ID, h2.Variables[1].ID}, card.VariableIDs)

	points, err := engine.LogValue(ctx, LogInput{Variable: "Sleep", Value: 7, Note: "slept well"})
	require.NoError(t, err)
	require.Len(t, points, 2)
	for _, dp := range points {
		assert.Equal(t, "2026-03-01", dp.Timestamp)
		assert.Equal(t, 7.0, dp.Value)
		assert.Equal(t, "slept well", dp.Note)
	}

	stored, err := store.LoadDataPoints(ctx, h1.Variables[1].ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	stored, err = store.LoadDataPoints(ctx, h2.Variables[1].ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	// Archived hypotheses drop out of the fan-out
	_, err = engine.ArchiveHypothesis(ctx, h2.ID)
	require.NoError(t, err)
	points, err = engine.LogValue(ctx, LogInput{Variable: "sleep", Value: 6, Timestamp: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, h1.Variables[1].ID, points[0].VariableID)

	// but can still be logged by identifier
	points, err = engine.LogValue(ctx, LogInput{Variable: h2.Variables[1].ID, Value: 5, Timestamp: "2026-03-02T22:15:00Z"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2026-03-02T22:15:00Z", points[0].Timestamp)
}

func TestEngine_LogValueMixedTypes(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine()

	h1, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does meditation help reduce my stress?"})
	require.NoError(t, err)
	h2, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does stress affect my sleep?"})
	require.NoError(t, err)

	scaleStress, binaryStress := h1.Variables[1], h2.Variables[0]
	require.Equal(t, "Stress", scaleStress.Name)
	require.Equal(t, schema.ScaleVariable, scaleStress.Type)
	require.Equal(t, "Stress", binaryStress.Name)
	require.Equal(t, schema.BinaryVariable, binaryStress.Type)

	merged, err := engine.ActiveVariables(ctx)
	require.NoError(t, err)
	assert.Len(t, MatchMerged(merged, "stress"), 2, "same name with different types keeps separate cards")

	_, err = engine.LogValue(ctx, LogInput{Variable: "stress", Value: 7})
	require.ErrorIs(t, err, ErrAmbiguousVariable)
	assert.ErrorContains(t, err, scaleStress.ID)
	assert.ErrorContains(t, err, binaryStress.ID)

	tests := []struct {
		name    string
		ref     string
		value   float64
		wantErr error
	}{
		{"binary by identifier", binaryStress.ID, 0, nil},
		{"scale by identifier", scaleStress.ID, 7, nil},
		{"scale value into binary", binaryStress.ID, 7, ErrInvalidValue},
		{"binary zero into scale", scaleStress.ID, 0, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := engine.LogValue(ctx, LogInput{Variable: tt.ref, Value: tt.value})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, points, 1)
			assert.Equal(t, tt.ref, points[0].VariableID)
		})
	}

	stored, err := store.LoadDataPoints(ctx, binaryStress.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NoError(t, ValidateValue(schema.BinaryVariable, stored[0].Value))

	cards, err := engine.VariableCards(ctx)
	require.NoError(t, err)
	card, ok := FindMerged(cards, binaryStress.ID)
	require.True(t, ok)
	assert.Equal(t, 1, card.Entries)
	require.NotNil(t, card.LastValue)
	assert.Equal(t, 0.0, *card.LastValue)

	// Archiving one side leaves a single card for the name
	_, err = engine.ArchiveHypothesis(ctx, h1.ID)
	require.NoError(t, err)
	points, err := engine.LogValue(ctx, LogInput{Variable: "stress", Value: 1, Timestamp: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, binaryStress.ID, points[0].VariableID)
}

func TestEngine_VariableCardsCountsEarlierPoints(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine()

	h1, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does magnesium improve my sleep quality?"})
	require.NoError(t, err)
	_, err = engine.LogValue(ctx, LogInput{Variable: "sleep", Value: 6, Timestamp: "2026-03-01"})
	require.NoError(t, err)
	_, err = engine.LogValue(ctx, LogInput{Variable: "sleep", Value: 8, Timestamp: "2026-03-02"})
	require.NoError(t, err)

	// A later hypothesis joins the card and inherits its history
	h2, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does reading improve my sleep?"})
	require.NoError(t, err)

	cards, err := engine.VariableCards(ctx)
	require.NoError(t, err)
	card, ok := FindMerged(cards, "sleep")
	require.True(t, ok)
	assert.Equal(t, []string{h1.Variables[1].ID, h2.Variables[1].ID}, card.VariableIDs)
	assert.Equal(t, 2, card.Entries)
	assert.Equal(t, "2026-03-02", card.LastTimestamp)
	require.NotNil(t, card.LastValue)
	assert.Equal(t, 8.0, *card.LastValue)
}

func TestEngine_VariableCardsEmpty(t *testing.T) {
	engine, _, _ := newTestEngine()
	cards, err := engine.VariableCards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestEngine_LogValueValidation(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine()
	_, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does meditation help reduce my stress?"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input LogInput
		err   error
	}{
		{"binary out of range", LogInput{Variable: "meditation", Value: 3}, ErrInvalidValue},
		{"binary fraction", LogInput{Variable: "meditation", Value: 0.5}, ErrInvalidValue},
		{"scale too high", LogInput{Variable: "stress", Value: 11}, ErrInvalidValue},
		{"scale too low", LogInput{Variable: "stress", Value: 0}, ErrInvalidValue},
		{"not a number", LogInput{Variable: "stress", Value: math.NaN()}, ErrInvalidValue},
		{"bad timestamp", LogInput{Variable: "stress", Value: 4, Timestamp: "yesterday"}, ErrInvalidTimestamp},
		{"unknown variable", LogInput{Variable: "mood", Value: 4}, ErrVariableNotFound},
		{"empty variable", LogInput{Variable: " ", Value: 4}, ErrVariableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.LogValue(ctx, tt.input)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	points, err := store.LoadDataPoints(ctx)
	require.NoError(t, err)
	assert.Empty(t, points, "rejected values are never stored")
}

func TestEngine_Conclude(t *testing.T) {
	ctx := context.Background()
	engine, _, now := newTestEngine()

	h, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does meditation help reduce my stress?"})
	require.NoError(t, err)

	// Not enough data yet
	concluded, err := engine.Conclude(ctx, h.ID, false)
	require.NoError(t, err)
	require.NotNil(t, concluded.Conclusion)
	assert.Equal(t, schema.InconclusiveVerdict, concluded.Conclusion.Verdict)
	assert.Equal(t, schema.ConcludedStatus, concluded.Status)

	meditated := []float64{1, 0, 1, 0, 1, 1}
	stress := []float64{2, 8, 3, 9, 2, 3}
	for i := range meditated {
		day := fmt.Sprintf("2026-03-%02d", i+2)
		_, err := engine.LogValue(ctx, LogInput{Variable: "meditation", Value: meditated[i], Timestamp: day})
		require.NoError(t, err)
		_, err = engine.LogValue(ctx, LogInput{Variable: "stress", Value: stress[i], Timestamp: day})
		require.NoError(t, err)
	}

	*now = now.Add(10 * 24 * time.Hour)
	concluded, err = engine.Conclude(ctx, h.ID, true)
	require.NoError(t, err)
	require.NotNil(t, concluded.Conclusion)
	assert.Equal(t, schema.RejectedVerdict, concluded.Conclusion.Verdict)
	assert.Equal(t, 6, concluded.Conclusion.PairedPoints)
	assert.Equal(t, *now, concluded.Conclusion.ConcludedAt)
	assert.Equal(t, schema.ArchivedStatus, concluded.Status)

	stored, err := engine.GetHypothesis(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.RejectedVerdict, stored.Conclusion.Verdict)

	// Re-running keeps an archived hypothesis archived
	again, err := engine.Conclude(ctx, h.ID, false)
	require.NoError(t, err)
	assert.Equal(t, schema.ArchivedStatus, again.Status)

	_, err = engine.Conclude(ctx, "missing", false)
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
}

func TestEngine_AddVariableAndProgress(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine()

	h, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "Does omega-3 improve my focus?"})
	require.NoError(t, err)

	v, err := engine.AddVariable(ctx, h.ID, "Screen time", schema.NumericVariable, true)
	require.NoError(t, err)
	assert.True(t, v.IsControl)
	assert.Equal(t, h.ID, v.HypothesisID)

	_, err = engine.AddVariable(ctx, h.ID, " ", schema.NumericVariable, true)
	assert.ErrorIs(t, err, ErrVariableNotFound)

	_, err = engine.LogValue(ctx, LogInput{Variable: "screen time", Value: 90, Timestamp: "2026-03-01T09:00:00Z"})
	require.NoError(t, err)
	_, err = engine.LogValue(ctx, LogInput{Variable: "screen time", Value: 30, Timestamp: "2026-03-01T21:00:00Z"})
	require.NoError(t, err)

	progress, err := engine.Progress(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.BaselineActive, progress.Phase)
	assert.Equal(t, 7, progress.DaysRemaining)
	require.Len(t, progress.Variables, 3)
	assert.Equal(t, 0, progress.Variables[0].TotalPoints)
	assert.Equal(t, 2, progress.Variables[2].TotalPoints)
	require.Len(t, progress.Variables[2].Days, 1)
	assert.Equal(t, 30.0, progress.Variables[2].Days[0].Value)
}

func TestEngine_TypeChangeRejected(t *testing.T) {
	ctx := context.Background()
	store := &datastore.MockStore{}
	h := schema.Hypothesis{
		ID:     "h1",
		Status: schema.ActiveStatus,
		Variables: []schema.Variable{
			{ID: "v1", Name: "Mood", Type: schema.ScaleVariable, HypothesisID: "h1"},
		},
	}
	store.On("LoadHypotheses", mock.Anything).Return([]schema.Hypothesis{h}, nil)
	store.On("LoadVariables", mock.Anything).Return([]schema.Variable{
		{ID: "v1", Name: "Mood", Type: schema.BinaryVariable, HypothesisID: "h1"},
	}, nil)

	engine := NewEngine(NewDefaultRuleParser(), store, WithClock(func() time.Time { return engineNow }))
	_, err := engine.ArchiveHypothesis(ctx, "h1")
	assert.ErrorIs(t, err, ErrTypeChange)
	store.AssertNotCalled(t, "SaveHypothesis", mock.Anything, mock.Anything)
}

func TestEngine_StorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	t.Run("save hypothesis", func(t *testing.T) {
		store := &datastore.MockStore{}
		store.On("SaveHypothesis", mock.Anything, mock.Anything).Return(boom)
		engine := NewEngine(NewDefaultRuleParser(), store)

		_, err := engine.CreateHypothesis(ctx, NewHypothesisInput{Question: "does yoga help my mood"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("fan-out batch", func(t *testing.T) {
		store := &datastore.MockStore{}
		store.On("LoadHypotheses", mock.Anything).Return([]schema.Hypothesis{{
			ID:     "h1",
			Status: schema.ActiveStatus,
			Variables: []schema.Variable{
				{ID: "v1", Name: "Mood", Type: schema.ScaleVariable, HypothesisID: "h1"},
			},
		}}, nil)
		store.On("SaveDataPoints", mock.Anything, mock.MatchedBy(func(dps []schema.DataPoint) bool {
			return len(dps) == 1 && dps[0].VariableID == "v1"
		})).Return(boom)
		engine := NewEngine(NewDefaultRuleParser(), store, WithClock(func() time.Time { return engineNow }))

		_, err := engine.LogValue(ctx, LogInput{Variable: "mood", Value: 6})
		assert.ErrorIs(t, err, boom)
		store.AssertExpectations(t)
	})

	t.Run("load hypotheses", func(t *testing.T) {
		store := &datastore.MockStore{}
		store.On("LoadHypotheses", mock.Anything).Return(nil, boom)
		engine := NewEngine(NewDefaultRuleParser(), store)

		_, err := engine.ListHypotheses(ctx, true)
		assert.ErrorIs(t, err, boom)
	})
}

func TestValidateValue_Numeric(t *testing.T) {
	assert.NoError(t, ValidateValue(schema.NumericVariable, -40))
	assert.NoError(t, ValidateValue(schema.NumericVariable, 1e6))
	assert.ErrorIs(t, ValidateValue(schema.NumericVariable, math.Inf(1)), ErrInvalidValue)
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2026-03-01", "2026-03-01T08:00:00", "2026-03-01T08:00:00Z", "2026-03-01T08:00:00.123+02:00"} {
		_, err := ParseTimestamp(s)
		assert.NoError(t, err, s)
	}
	for _, s := range []string{"", "03/01/2026", "2026-13-01", "today"} {
		_, err := ParseTimestamp(s)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, s)
	}
}
