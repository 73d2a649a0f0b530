package datastore

import (
	"context"
	"sync"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
)

// MemoryStore keeps everything in process memory. Contents are lost on Close.
type MemoryStore struct {
	mu         sync.RWMutex
	hypotheses map[string]schema.Hypothesis
	hypOrder   []string
	variables  map[string]schema.Variable
	varOrder   []string
	points     map[string]schema.DataPoint
	pointOrder []string
}

var _ contract.Store = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hypotheses: make(map[string]schema.Hypothesis),
		variables:  make(map[string]schema.Variable),
		points:     make(map[string]schema.DataPoint),
	}
}

// LoadHypotheses returns copies of every hypothesis in insertion order.
func (m *MemoryStore) LoadHypotheses(_ context.Context) ([]schema.Hypothesis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]schema.Hypothesis, 0, len(m.hypOrder))
	for _, id := range m.hypOrder {
		h := m.hypotheses[id]
		h.Variables = []schema.Variable{}
		for _, vid := range m.varOrder {
			if v := m.variables[vid]; v.HypothesisID == id {
				h.Variables = append(h.Variables, v)
			}
		}
		result = append(result, copyHypothesis(h))
	}
	return result, nil
}

// SaveHypothesis upserts the hypothesis and replaces its variables.
func (m *MemoryStore) SaveHypothesis(_ context.Context, h schema.Hypothesis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h.Status == "" {
		h.Status = schema.ActiveStatus
	}
	if _, ok := m.hypotheses[h.ID]; !ok {
		m.hypOrder = append(m.hypOrder, h.ID)
	}

	kept := m.varOrder[:0:0]
	for _, vid := range m.varOrder {
		if m.variables[vid].HypothesisID == h.ID {
			delete(m.variables, vid)
			continue
		}
		kept = append(kept, vid)
	}
	m.varOrder = kept
	for _, v := range h.Variables {
		v.HypothesisID = h.ID
		m.putVariable(v)
	}

	stored := copyHypothesis(h)
	stored.Variables = nil
	m.hypotheses[h.ID] = stored
	return nil
}

// putVariable must be called with the write lock held.
func (m *MemoryStore) putVariable(v schema.Variable) {
	if v.PreferredTime == "" {
		v.PreferredTime = schema.AnyTime
	}
	if _, ok := m.variables[v.ID]; !ok {
		m.varOrder = append(m.varOrder, v.ID)
	}
	m.variables[v.ID] = v
}

// LoadVariables returns every variable in insertion order.
func (m *MemoryStore) LoadVariables(_ context.Context) ([]schema.Variable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]schema.Variable, 0, len(m.varOrder))
	for _, id := range m.varOrder {
		result = append(result, m.variables[id])
	}
	return result, nil
}

// SaveVariable upserts a single variable.
func (m *MemoryStore) SaveVariable(_ context.Context, v schema.Variable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putVariable(v)
	return nil
}

// LoadDataPoints returns points of the given variables, or all points, in logging order.
func (m *MemoryStore) LoadDataPoints(_ context.Context, variableIDs ...string) ([]schema.DataPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter := make(map[string]struct{}, len(variableIDs))
	for _, id := range variableIDs {
		filter[id] = struct{}{}
	}
	result := []schema.DataPoint{}
	for _, id := range m.pointOrder {
		dp := m.points[id]
		if len(filter) > 0 {
			if _, ok := filter[dp.VariableID]; !ok {
				continue
			}
		}
		result = append(result, dp)
	}
	return result, nil
}

// SaveDataPoint upserts a single data point.
func (m *MemoryStore) SaveDataPoint(ctx context.Context, dp schema.DataPoint) error {
	return m.SaveDataPoints(ctx, []schema.DataPoint{dp})
}

// SaveDataPoints upserts the batch under one lock.
func (m *MemoryStore) SaveDataPoints(_ context.Context, dps []schema.DataPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, dp := range dps {
		if _, ok := m.points[dp.ID]; !ok {
			m.pointOrder = append(m.pointOrder, dp.ID)
		}
		m.points[dp.ID] = dp
	}
	return nil
}

// GetStatus returns row counts for the in-memory collections.
func (m *MemoryStore) GetStatus(_ context.Context) (schema.StoreStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := schema.StoreStatus{
		Backend:         string(schema.MemoryBackend),
		Connected:       true,
		TotalHypotheses: len(m.hypotheses),
		TableSizes: map[string]int64{
			hypothesesTable: int64(len(m.hypotheses)),
			variablesTable:  int64(len(m.variables)),
			dataPointsTable: int64(len(m.points)),
		},
	}
	for _, h := range m.hypotheses {
		if h.Status == schema.ActiveStatus {
			status.ActiveCount++
		}
		if h.CreatedAt.After(status.LastCreatedTime) {
			status.LastCreatedTime = h.CreatedAt
		}
	}
	return status, nil
}

// Clear drops every record.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hypotheses = make(map[string]schema.Hypothesis)
	m.variables = make(map[string]schema.Variable)
	m.points = make(map[string]schema.DataPoint)
	m.hypOrder, m.varOrder, m.pointOrder = nil, nil, nil
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// copyHypothesis detaches the pointer fields so callers cannot mutate stored state.
func copyHypothesis(h schema.Hypothesis) schema.Hypothesis {
	if h.Parsed != nil {
		p := *h.Parsed
		h.Parsed = &p
	}
	if h.Knowledge != nil {
		k := *h.Knowledge
		k.Sources = append([]string(nil), k.Sources...)
		h.Knowledge = &k
	}
	if h.Baseline != nil {
		b := *h.Baseline
		h.Baseline = &b
	}
	if h.InterventionStart != nil {
		t := *h.InterventionStart
		h.InterventionStart = &t
	}
	if h.Context != nil {
		c := *h.Context
		h.Context = &c
	}
	if h.Conclusion != nil {
		c := *h.Conclusion
		h.Conclusion = &c
	}
	if h.Variables != nil {
		vars := make([]schema.Variable, len(h.Variables))
		copy(vars, h.Variables)
		h.Variables = vars
	}
	return h
}
