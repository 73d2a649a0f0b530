package cmd

import (
	"testing"

	"github.com/huangsam/hypolog/core"
	"github.com/huangsam/hypolog/internal/aiparse"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/internal/datastore"
	"github.com/huangsam/hypolog/schema"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseControl(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected core.ControlInput
		wantErr  bool
	}{
		{name: "name only", input: "Mood", expected: core.ControlInput{Name: "Mood", Type: schema.ScaleVariable}},
		{name: "with type", input: "Caffeine:numeric", expected: core.ControlInput{Name: "Caffeine", Type: schema.NumericVariable}},
		{name: "additive", input: "Water:numeric:additive", expected: core.ControlInput{Name: "Water", Type: schema.NumericVariable, Additive: true}},
		{name: "empty type keeps default", input: "Mood::additive", expected: core.ControlInput{Name: "Mood", Type: schema.ScaleVariable, Additive: true}},
		{name: "empty name", input: ":scale", wantErr: true},
		{name: "bad type", input: "Mood:color", wantErr: true},
		{name: "bad option", input: "Mood:scale:sum", wantErr: true},
		{name: "too many parts", input: "a:scale:additive:x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseControl(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseVariableTypeAndPreferredTime(t *testing.T) {
	typ, err := parseVariableType(" Binary ")
	require.NoError(t, err)
	assert.Equal(t, schema.BinaryVariable, typ)

	_, err = parseVariableType("boolean")
	assert.ErrorContains(t, err, "invalid variable type")

	pt, err := parsePreferredTime("EVENING")
	require.NoError(t, err)
	assert.Equal(t, schema.EveningTime, pt)

	_, err = parsePreferredTime("noon")
	assert.ErrorContains(t, err, "invalid preferred time")
}

func newFlagCommand(register func(*cobra.Command)) *cobra.Command {
	c := &cobra.Command{Use: "test"}
	register(c)
	return c
}

func TestNewLogInput(t *testing.T) {
	register := func(c *cobra.Command) {
		c.Flags().String("at", "", "")
		c.Flags().String("note", "", "")
		c.Flags().String("source", "manual", "")
		c.Flags().String("activity", "", "")
	}

	t.Run("defaults", func(t *testing.T) {
		in, err := newLogInput(newFlagCommand(register), []string{"stress", "4"})
		require.NoError(t, err)
		assert.Equal(t, "stress", in.Variable)
		assert.Equal(t, 4.0, in.Value)
		assert.Empty(t, in.Timestamp)
		require.NotNil(t, in.Metadata)
		assert.Equal(t, "manual", in.Metadata.Source)
	})

	t.Run("flags", func(t *testing.T) {
		c := newFlagCommand(register)
		require.NoError(t, c.Flags().Set("at", "2026-03-02"))
		require.NoError(t, c.Flags().Set("note", "busy"))
		require.NoError(t, c.Flags().Set("source", ""))
		in, err := newLogInput(c, []string{"water", "2.5"})
		require.NoError(t, err)
		assert.Equal(t, "2026-03-02", in.Timestamp)
		assert.Equal(t, "busy", in.Note)
		assert.Nil(t, in.Metadata)
	})

	t.Run("bad value", func(t *testing.T) {
		_, err := newLogInput(newFlagCommand(register), []string{"stress", "high"})
		assert.ErrorContains(t, err, "invalid value 'high'")
	})
}

func TestNewHypothesisInput(t *testing.T) {
	register := func(c *cobra.Command) {
		c.Flags().String("intervention", "", "")
		c.Flags().String("outcome", "", "")
		c.Flags().String("intervention-type", string(schema.BinaryVariable), "")
		c.Flags().String("outcome-type", string(schema.ScaleVariable), "")
		c.Flags().String("preferred-time", string(schema.AnyTime), "")
		c.Flags().StringArray("control", nil, "")
		c.Flags().Bool("skip-baseline", false, "")
		c.Flags().Int("days", 0, "")
		c.Flags().String("frequency", "", "")
		c.Flags().String("timing", "", "")
		c.Flags().String("context", "", "")
	}

	t.Run("full", func(t *testing.T) {
		c := newFlagCommand(register)
		require.NoError(t, c.Flags().Set("control", "Caffeine:numeric:additive"))
		require.NoError(t, c.Flags().Set("days", "14"))
		require.NoError(t, c.Flags().Set("timing", "before bed"))
		require.NoError(t, c.Flags().Set("preferred-time", "evening"))

		in, err := newHypothesisInput(c, "Does magnesium improve my sleep?")
		require.NoError(t, err)
		assert.Equal(t, 14, in.BaselineDays)
		assert.Equal(t, schema.EveningTime, in.PreferredTime)
		require.Len(t, in.Controls, 1)
		assert.True(t, in.Controls[0].Additive)
		require.NotNil(t, in.Context)
		assert.Equal(t, "before bed", in.Context.Timing)
	})

	t.Run("no context", func(t *testing.T) {
		in, err := newHypothesisInput(newFlagCommand(register), "q")
		require.NoError(t, err)
		assert.Nil(t, in.Context)
		assert.Equal(t, schema.BinaryVariable, in.InterventionType)
	})

	t.Run("days out of range", func(t *testing.T) {
		c := newFlagCommand(register)
		require.NoError(t, c.Flags().Set("days", "365"))
		_, err := newHypothesisInput(c, "q")
		assert.ErrorContains(t, err, "--days must be between")
	})

	t.Run("bad control", func(t *testing.T) {
		c := newFlagCommand(register)
		require.NoError(t, c.Flags().Set("control", "Mood:color"))
		_, err := newHypothesisInput(c, "q")
		assert.Error(t, err)
	})
}

func TestNewParser(t *testing.T) {
	_, ok := newParser(&contract.Config{Parser: schema.RuleParser}).(*core.RuleParser)
	assert.True(t, ok)

	_, ok = newParser(&contract.Config{Parser: schema.OpenAIParser, OpenAIKey: "k", OpenAIModel: "m"}).(*aiparse.Parser)
	assert.True(t, ok)
}

func TestNewEngine(t *testing.T) {
	c := &contract.Config{
		Parser:       schema.RuleParser,
		Pairing:      schema.ExactPairing,
		BaselineDays: 3,
		Thresholds:   schema.DefaultThresholds(),
		Lexicon:      schema.DefaultLexicon(),
	}
	e := newEngine(c, datastore.NewMemoryStore())
	h, err := e.CreateHypothesis(t.Context(), core.NewHypothesisInput{Question: "Does yoga boost my energy?"})
	require.NoError(t, err)
	require.NotNil(t, h.Baseline)
	assert.Equal(t, 3, core.DaysRemaining(h.Baseline, h.CreatedAt))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"parse"}, {"new"}, {"list"}, {"show"}, {"archive"}, {"baseline", "complete"},
		{"log"}, {"variables"}, {"variables", "add"}, {"conclude"},
		{"store", "status"}, {"store", "clear"}, {"store", "migrate"}, {"store", "export"},
		{"mcp"}, {"version"},
	} {
		found, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}
