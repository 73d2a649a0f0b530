// Package aiparse reads hypotheses with an OpenAI chat model and falls back
// to the rule-based parser whenever the remote answer is unusable.
package aiparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/huangsam/hypolog/core"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You extract the structure of a personal self-experiment hypothesis.
Reply with one JSON object and nothing else, using these keys:
"intervention": the behavior, substance or action being changed, lower-case, a few words;
"outcome": the effect being measured, lower-case, a few words;
"category": one of %s;
"confidence": a number between 0 and 1.
Use "%s" or "%s" when the text does not name one.`

// Parser is a contract.Parser backed by an OpenAI chat completion.
type Parser struct {
	client   *openai.Client
	model    string
	fallback *core.RuleParser
	known    map[string]struct{}
}

var _ contract.Parser = &Parser{} // Compile-time check

// reply is the JSON object the model is asked to return.
type reply struct {
	Intervention string   `json:"intervention"`
	Outcome      string   `json:"outcome"`
	Category     string   `json:"category"`
	Confidence   *float64 `json:"confidence"`
}

// New returns a parser for the given credentials. An empty baseURL keeps the
// OpenAI default; the lexicon backs the rule-based fallback.
func New(apiKey, model, baseURL string, lexicon schema.Lexicon) *Parser {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = contract.DefaultOpenAIModel
	}
	known := make(map[string]struct{}, len(lexicon.Interventions))
	for _, entry := range lexicon.Interventions {
		known[entry] = struct{}{}
	}
	return &Parser{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		fallback: core.NewRuleParser(lexicon),
		known:    known,
	}
}

// Parse never fails. Lexicon interventions found by the rule parser win over
// the model's wording so both parsers agree on known entries.
func (p *Parser) Parse(ctx context.Context, text string) schema.ParsedHypothesis {
	rule := p.fallback.Parse(ctx, text)
	if strings.TrimSpace(text) == "" {
		return rule
	}

	parsed, err := p.complete(ctx, text)
	if err != nil {
		slog.Warn("OpenAI parse failed, using rule parser", "model", p.model, "error", err)
		return rule
	}
	if _, ok := p.known[rule.Intervention]; ok {
		parsed.Intervention = rule.Intervention
	}
	slog.Debug("Parsed hypothesis via OpenAI", "model", p.model, "category", parsed.Category)
	return parsed
}

func (p *Parser) complete(ctx context.Context, text string) (schema.ParsedHypothesis, error) {
	categories := make([]string, 0, len(schema.AllCategories)+1)
	for _, c := range schema.AllCategories {
		categories = append(categories, string(c))
	}
	categories = append(categories, string(schema.GeneralCategory))

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPrompt, strings.Join(categories, ", "),
					schema.DefaultIntervention, schema.DefaultOutcome),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return schema.ParsedHypothesis{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return schema.ParsedHypothesis{}, errors.New("OpenAI returned no choices")
	}
	return decodeReply(resp.Choices[0].Message.Content)
}

// decodeReply validates the model output and normalizes it.
func decodeReply(content string) (schema.ParsedHypothesis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "`\n ")

	var r reply
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return schema.ParsedHypothesis{}, fmt.Errorf("decode reply: %w", err)
	}

	parsed := schema.ParsedHypothesis{
		Intervention: strings.ToLower(strings.TrimSpace(r.Intervention)),
		Outcome:      strings.ToLower(strings.TrimSpace(r.Outcome)),
		Category:     schema.Category(strings.ToLower(strings.TrimSpace(r.Category))),
	}
	if parsed.Intervention == "" || parsed.Outcome == "" {
		return schema.ParsedHypothesis{}, errors.New("reply is missing intervention or outcome")
	}
	if _, ok := schema.ValidCategories[parsed.Category]; !ok {
		return schema.ParsedHypothesis{}, fmt.Errorf("reply has unknown category %q", r.Category)
	}
	if r.Confidence == nil || math.IsNaN(*r.Confidence) {
		return schema.ParsedHypothesis{}, errors.New("reply is missing confidence")
	}
	parsed.Confidence = math.Round(math.Min(1, math.Max(0, *r.Confidence))*100) / 100
	return parsed, nil
}
