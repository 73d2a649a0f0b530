package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
)

var (
	// ErrHypothesisNotFound is returned when no hypothesis matches an identifier.
	ErrHypothesisNotFound = errors.New("hypothesis not found")

	// ErrVariableNotFound is returned when no variable matches a name or identifier.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrAmbiguousVariable is returned when a name matches variables of several types.
	ErrAmbiguousVariable = errors.New("variable name matches several types")

	// ErrInvalidValue is returned when a value does not fit the variable type.
	ErrInvalidValue = errors.New("invalid value for variable type")

	// ErrInvalidTimestamp is returned when a timestamp is not ISO-8601.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrTypeChange is returned when a save would change the type of an existing variable.
	ErrTypeChange = errors.New("variable type cannot change after creation")

	// ErrEmptyQuestion is returned when a hypothesis has no question text.
	ErrEmptyQuestion = errors.New("hypothesis question is empty")
)

// DefaultBaselineDays is the baseline length used when nothing is configured.
const DefaultBaselineDays = 7

// Accepted timestamp layouts, most specific first.
var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Engine coordinates parsing, phase tracking, logging and conclusions over a store.
type Engine struct {
	parser       contract.Parser
	store        contract.Store
	generator    ConclusionGenerator
	baselineDays int
	now          func() time.Time
	newID        func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithThresholds overrides the verdict thresholds.
func WithThresholds(th schema.Thresholds) EngineOption {
	return func(e *Engine) { e.generator.Thresholds = th }
}

// WithPairing selects how data points are paired for correlation.
func WithPairing(mode schema.PairingMode) EngineOption {
	return func(e *Engine) { e.generator.Pairing = mode }
}

// WithBaselineDays sets the default baseline length for new hypotheses.
func WithBaselineDays(days int) EngineOption {
	return func(e *Engine) { e.baselineDays = days }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine wires a parser and a store into an engine.
func NewEngine(parser contract.Parser, store contract.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		parser:       parser,
		store:        store,
		generator:    NewConclusionGenerator(),
		baselineDays: DefaultBaselineDays,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// ParseHypothesis runs the configured parser.
func (e *Engine) ParseHypothesis(ctx context.Context, text string) schema.ParsedHypothesis {
	return e.parser.Parse(ctx, text)
}

// ControlInput describes a control variable to create alongside a hypothesis.
type ControlInput struct {
	Name     string
	Type     schema.VariableType
	Additive bool
}

// NewHypothesisInput describes a hypothesis to create.
// Intervention and Outcome, when set, are the user-confirmed phrases and skip parsing.
type NewHypothesisInput struct {
	Question         string
	Intervention     string
	Outcome          string
	InterventionType schema.VariableType
	OutcomeType      schema.VariableType
	PreferredTime    schema.PreferredTime
	Controls         []ControlInput
	SkipBaseline     bool
	BaselineDays     int
	Context          *schema.HypothesisContext
	Knowledge        *schema.KnowledgeCard
}

// CreateHypothesis parses, builds and persists a new hypothesis.
func (e *Engine) CreateHypothesis(ctx context.Context, in NewHypothesisInput) (schema.Hypothesis, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return schema.Hypothesis{}, ErrEmptyQuestion
	}

	parsed := e.parser.Parse(ctx, question)
	if v := strings.ToLower(strings.TrimSpace(in.Intervention)); v != "" {
		parsed.Intervention = v
	}
	if v := strings.ToLower(strings.TrimSpace(in.Outcome)); v != "" {
		parsed.Outcome = v
	}

	now := e.now()
	h := schema.Hypothesis{
		ID:        e.newID(),
		Question:  question,
		CreatedAt: now,
		Status:    schema.ActiveStatus,
		Parsed:    &parsed,
		Knowledge: in.Knowledge,
		Context:   in.Context,
	}

	preferred := in.PreferredTime
	if preferred == "" {
		preferred = schema.AnyTime
	}
	h.Variables = append(h.Variables,
		e.newVariable(h.ID, displayName(parsed.Intervention), defaultType(in.InterventionType, schema.BinaryVariable), false, preferred),
		e.newVariable(h.ID, displayName(parsed.Outcome), defaultType(in.OutcomeType, schema.ScaleVariable), false, preferred),
	)
	for _, c := range in.Controls {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		control := e.newVariable(h.ID, name, defaultType(c.Type, schema.ScaleVariable), true, preferred)
		control.Additive = c.Additive
		h.Variables = append(h.Variables, control)
	}

	if !in.SkipBaseline {
		days := in.BaselineDays
		if days <= 0 {
			days = e.baselineDays
		}
		h.Baseline = NewBaseline(now, days)
	}
	if h.Baseline == nil {
		h.InterventionStart = &now
	}

	if err := e.store.SaveHypothesis(ctx, h); err != nil {
		return schema.Hypothesis{}, fmt.Errorf("save hypothesis: %w", err)
	}
	return h, nil
}

func (e *Engine) newVariable(hypothesisID, name string, typ schema.VariableType, control bool, preferred schema.PreferredTime) schema.Variable {
	return schema.Variable{
		ID:            e.newID(),
		Name:          name,
		Type:          typ,
		HypothesisID:  hypothesisID,
		IsControl:     control,
		PreferredTime: preferred,
	}
}

func defaultType(typ, fallback schema.VariableType) schema.VariableType {
	if _, ok := schema.ValidVariableTypes[typ]; ok {
		return typ
	}
	return fallback
}

// displayName capitalizes the first letter of a parsed phrase.
func displayName(phrase string) string {
	if phrase == "" {
		return phrase
	}
	r, size := utf8.DecodeRuneInString(phrase)
	return string(unicode.ToUpper(r)) + phrase[size:]
}

// ListHypotheses returns hypotheses, skipping archived ones unless asked.
func (e *Engine) ListHypotheses(ctx context.Context, includeArchived bool) ([]schema.Hypothesis, error) {
	all, err := e.store.LoadHypotheses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hypotheses: %w", err)
	}
	if includeArchived {
		return all, nil
	}
	active := make([]schema.Hypothesis, 0, len(all))
	for _, h := range all {
		if !h.IsArchived() {
			active = append(active, h)
		}
	}
	return active, nil
}

// GetHypothesis finds a hypothesis by identifier or unique identifier prefix.
func (e *Engine) GetHypothesis(ctx context.Context, id string) (schema.Hypothesis, error) {
	all, err := e.store.LoadHypotheses(ctx)
	if err != nil {
		return schema.Hypothesis{}, fmt.Errorf("load hypotheses: %w", err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return schema.Hypothesis{}, ErrHypothesisNotFound
	}
	var match *schema.Hypothesis
	for i := range all {
		if all[i].ID == id {
			return all[i], nil
		}
		if strings.HasPrefix(all[i].ID, id) {
			if match != nil {
				return schema.Hypothesis{}, fmt.Errorf("%w: prefix %q is ambiguous", ErrHypothesisNotFound, id)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return schema.Hypothesis{}, fmt.Errorf("%w: %s", ErrHypothesisNotFound, id)
	}
	return *match, nil
}

// saveHypothesis persists h after checking that no existing variable changes type.
func (e *Engine) saveHypothesis(ctx context.Context, h schema.Hypothesis) error {
	existing, err := e.store.LoadVariables(ctx)
	if err != nil {
		return fmt.Errorf("load variables: %w", err)
	}
	types := make(map[string]schema.VariableType, len(existing))
	for _, v := range existing {
		types[v.ID] = v.Type
	}
	for _, v := range h.Variables {
		if prev, ok := types[v.ID]; ok && prev != v.Type {
			return fmt.Errorf("%w: %s is %s, not %s", ErrTypeChange, v.Name, prev, v.Type)
		}
	}
	if err := e.store.SaveHypothesis(ctx, h); err != nil {
		return fmt.Errorf("save hypothesis: %w", err)
	}
	return nil
}

// AddVariable attaches a new variable to an existing hypothesis.
func (e *Engine) AddVariable(ctx context.Context, hypothesisID, name string, typ schema.VariableType, control bool) (schema.Variable, error) {
	h, err := e.GetHypothesis(ctx, hypothesisID)
	if err != nil {
		return schema.Variable{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return schema.Variable{}, fmt.Errorf("%w: empty name", ErrVariableNotFound)
	}
	v := e.newVariable(h.ID, name, defaultType(typ, schema.ScaleVariable), control, schema.AnyTime)
	h.Variables = append(h.Variables, v)
	if err := e.saveHypothesis(ctx, h); err != nil {
		return schema.Variable{}, err
	}
	return v, nil
}

// ArchiveHypothesis soft-deletes a hypothesis. Any conclusion is kept.
func (e *Engine) ArchiveHypothesis(ctx context.Context, id string) (schema.Hypothesis, error) {
	h, err := e.GetHypothesis(ctx, id)
	if err != nil {
		return schema.Hypothesis{}, err
	}
	if h.IsArchived() {
		return h, nil
	}
	h.Status = schema.ArchivedStatus
	if err := e.saveHypothesis(ctx, h); err != nil {
		return schema.Hypothesis{}, err
	}
	return h, nil
}

// CompleteBaseline ends the baseline early and starts the intervention.
func (e *Engine) CompleteBaseline(ctx context.Context, id string) (schema.Hypothesis, error) {
	h, err := e.GetHypothesis(ctx, id)
	if err != nil {
		return schema.Hypothesis{}, err
	}
	if !CompleteBaseline(&h, e.now()) {
		return h, nil
	}
	if err := e.saveHypothesis(ctx, h); err != nil {
		return schema.Hypothesis{}, err
	}
	return h, nil
}

// BaselineStatus reports the derived phase and the days left in it.
func (e *Engine) BaselineStatus(ctx context.Context, id string) (schema.Hypothesis, schema.PhaseState, int, error) {
	h, err := e.GetHypothesis(ctx, id)
	if err != nil {
		return schema.Hypothesis{}, "", 0, err
	}
	now := e.now()
	return h, PhaseOf(&h, now), DaysRemaining(h.Baseline, now), nil
}

// ActiveVariables returns the merged variables of non-archived hypotheses.
func (e *Engine) ActiveVariables(ctx context.Context) ([]schema.MergedVariable, error) {
	all, err := e.store.LoadHypotheses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hypotheses: %w", err)
	}
	return ActiveVariables(all), nil
}

// VariableCards returns the merged variables of non-archived hypotheses with
// the entry count and latest reading of each card.
func (e *Engine) VariableCards(ctx context.Context) ([]schema.MergedVariable, error) {
	merged, err := e.ActiveVariables(ctx)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return merged, nil
	}
	var ids []string
	for _, card := range merged {
		ids = append(ids, card.VariableIDs...)
	}
	points, err := e.store.LoadDataPoints(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("load data points: %w", err)
	}
	return SummarizeMerged(merged, points), nil
}

// LogInput describes one value to log. Variable is a merge key, a display
// name or a variable identifier.
type LogInput struct {
	Variable  string
	Value     float64
	Timestamp string // Defaults to today's date
	Note      string
	Metadata  *schema.DataPointMetadata
}

// LogValue validates the value and writes one data point per underlying
// variable of the merged card, in a single atomic batch.
func (e *Engine) LogValue(ctx context.Context, in LogInput) ([]schema.DataPoint, error) {
	card, err := e.resolveVariable(ctx, in.Variable)
	if err != nil {
		return nil, err
	}
	if err := ValidateValue(card.Variable.Type, in.Value); err != nil {
		return nil, fmt.Errorf("%s: %w", card.Variable.Name, err)
	}

	timestamp := strings.TrimSpace(in.Timestamp)
	if timestamp == "" {
		timestamp = e.now().Format(time.DateOnly)
	} else if _, err := ParseTimestamp(timestamp); err != nil {
		return nil, err
	}

	points := make([]schema.DataPoint, 0, len(card.VariableIDs))
	for _, id := range card.VariableIDs {
		points = append(points, schema.DataPoint{
			ID:         e.newID(),
			VariableID: id,
			Value:      in.Value,
			Timestamp:  timestamp,
			Note:       in.Note,
			Metadata:   in.Metadata,
		})
	}
	if err := e.store.SaveDataPoints(ctx, points); err != nil {
		return nil, fmt.Errorf("save data points: %w", err)
	}
	return points, nil
}

// resolveVariable finds the merged card among active variables, falling back
// to a single variable of an archived hypothesis when referenced by identifier.
func (e *Engine) resolveVariable(ctx context.Context, ref string) (schema.MergedVariable, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return schema.MergedVariable{}, ErrVariableNotFound
	}
	active, err := e.ActiveVariables(ctx)
	if err != nil {
		return schema.MergedVariable{}, err
	}
	switch matches := MatchMerged(active, ref); len(matches) {
	case 0:
	case 1:
		return matches[0], nil
	default:
		var options []string
		for _, card := range matches {
			options = append(options, fmt.Sprintf("%s (%s)", card.VariableIDs[0], card.Variable.Type))
		}
		return schema.MergedVariable{}, fmt.Errorf("%w: %q, log by identifier: %s",
			ErrAmbiguousVariable, ref, strings.Join(options, ", "))
	}

	all, err := e.store.LoadVariables(ctx)
	if err != nil {
		return schema.MergedVariable{}, fmt.Errorf("load variables: %w", err)
	}
	for _, v := range all {
		if v.ID == ref {
			return schema.MergedVariable{Key: NormalizeVariableName(v.Name), Variable: v, VariableIDs: []string{v.ID}}, nil
		}
	}
	return schema.MergedVariable{}, fmt.Errorf("%w: %s", ErrVariableNotFound, ref)
}

// ValidateValue checks a value against the variable type.
func ValidateValue(typ schema.VariableType, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}
	switch typ {
	case schema.ScaleVariable:
		if value < 1 || value > 10 {
			return fmt.Errorf("%w: scale expects 1-10, got %v", ErrInvalidValue, value)
		}
	case schema.BinaryVariable:
		if value != 0 && value != 1 {
			return fmt.Errorf("%w: binary expects 0 or 1, got %v", ErrInvalidValue, value)
		}
	}
	return nil
}

// ParseTimestamp accepts RFC 3339 timestamps and plain dates.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// Conclude evaluates the hypothesis and stores the conclusion, overwriting
// any earlier one. The status becomes concluded, or archived when requested
// or already archived.
func (e *Engine) Conclude(ctx context.Context, id string, archive bool) (schema.Hypothesis, error) {
	h, err := e.GetHypothesis(ctx, id)
	if err != nil {
		return schema.Hypothesis{}, err
	}
	points, err := e.store.LoadDataPoints(ctx, variableIDs(h)...)
	if err != nil {
		return schema.Hypothesis{}, fmt.Errorf("load data points: %w", err)
	}

	conclusion := e.generator.Generate(&h, points, e.now())
	h.Conclusion = &conclusion
	if archive || h.IsArchived() {
		h.Status = schema.ArchivedStatus
	} else {
		h.Status = schema.ConcludedStatus
	}
	if err := e.saveHypothesis(ctx, h); err != nil {
		return schema.Hypothesis{}, err
	}
	return h, nil
}

// Progress summarizes the phase and logging activity of a hypothesis.
func (e *Engine) Progress(ctx context.Context, id string) (schema.HypothesisProgress, error) {
	h, err := e.GetHypothesis(ctx, id)
	if err != nil {
		return schema.HypothesisProgress{}, err
	}
	points, err := e.store.LoadDataPoints(ctx, variableIDs(h)...)
	if err != nil {
		return schema.HypothesisProgress{}, fmt.Errorf("load data points: %w", err)
	}

	byVariable := make(map[string][]schema.DataPoint)
	for _, dp := range points {
		byVariable[dp.VariableID] = append(byVariable[dp.VariableID], dp)
	}

	now := e.now()
	progress := schema.HypothesisProgress{
		Hypothesis:    h,
		Phase:         PhaseOf(&h, now),
		DaysRemaining: DaysRemaining(h.Baseline, now),
	}
	for _, v := range h.Variables {
		own := byVariable[v.ID]
		progress.Variables = append(progress.Variables, schema.VariableProgress{
			Variable:    v,
			TotalPoints: len(own),
			Days:        DailySeries(own, v.Additive),
		})
	}
	return progress, nil
}

func variableIDs(h schema.Hypothesis) []string {
	ids := make([]string, 0, len(h.Variables))
	for _, v := range h.Variables {
		ids = append(ids, v.ID)
	}
	return ids
}
