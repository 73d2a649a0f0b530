package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/hypolog/core"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	engine *core.Engine
}

// hypothesisSummary is the listing shape returned to agents.
type hypothesisSummary struct {
	ID       string                   `json:"id"`
	Question string                   `json:"question"`
	Status   schema.HypothesisStatus  `json:"status"`
	Phase    schema.PhaseState        `json:"phase"`
	Verdict  string                   `json:"verdict"`
	Parsed   *schema.ParsedHypothesis `json:"parsed,omitempty"`
}

// baselineReport is the result of baseline_status.
type baselineReport struct {
	ID            string                `json:"id"`
	Phase         schema.PhaseState     `json:"phase"`
	DaysRemaining int                   `json:"days_remaining"`
	Baseline      *schema.BaselinePhase `json:"baseline,omitempty"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleParseHypothesis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := strings.TrimSpace(request.GetString("text", ""))
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	return jsonResult(h.engine.ParseHypothesis(ctx, text))
}

func (h *toolHandler) handleListHypotheses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hypotheses, err := h.engine.ListHypotheses(ctx, request.GetBool("include_archived", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}

	now := h.engine.Now()
	summaries := make([]hypothesisSummary, 0, len(hypotheses))
	for _, hyp := range hypotheses {
		summaries = append(summaries, hypothesisSummary{
			ID:       hyp.ID,
			Question: hyp.Question,
			Status:   hyp.Status,
			Phase:    core.PhaseOf(&hyp, now),
			Verdict:  contract.GetPlainLabel(hyp),
			Parsed:   hyp.Parsed,
		})
	}
	return jsonResult(summaries)
}

func (h *toolHandler) handleActiveVariables(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	merged, err := h.engine.VariableCards(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading variables failed: %v", err)), nil
	}
	return jsonResult(merged)
}

func (h *toolHandler) handleBaselineStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("hypothesis_id", "")
	if id == "" {
		return mcp.NewToolResultError("hypothesis_id is required"), nil
	}

	if request.GetBool("complete", false) {
		if _, err := h.engine.CompleteBaseline(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("completing baseline failed: %v", err)), nil
		}
	}

	hyp, phase, days, err := h.engine.BaselineStatus(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("baseline status failed: %v", err)), nil
	}
	return jsonResult(baselineReport{ID: hyp.ID, Phase: phase, DaysRemaining: days, Baseline: hyp.Baseline})
}

func (h *toolHandler) handleLogValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if _, ok := args["value"]; !ok {
		return mcp.NewToolResultError("value is required"), nil
	}

	points, err := h.engine.LogValue(ctx, core.LogInput{
		Variable:  request.GetString("variable", ""),
		Value:     request.GetFloat("value", 0),
		Timestamp: request.GetString("timestamp", ""),
		Note:      request.GetString("note", ""),
		Metadata:  &schema.DataPointMetadata{Source: "mcp"},
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("logging failed: %v", err)), nil
	}
	return jsonResult(points)
}

func (h *toolHandler) handleConcludeHypothesis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("hypothesis_id", "")
	if id == "" {
		return mcp.NewToolResultError("hypothesis_id is required"), nil
	}

	hyp, err := h.engine.Conclude(ctx, id, request.GetBool("archive", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("conclusion failed: %v", err)), nil
	}
	return jsonResult(hyp)
}
