// Package service contains the conversational orchestration: one question
// in, at most one tool round-trip, one grounded answer out.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/coursechat-go/internal/metrics"
	"github.com/raphaelgruber/coursechat-go/internal/models"
	"github.com/raphaelgruber/coursechat-go/internal/session"
	"github.com/raphaelgruber/coursechat-go/internal/tools"
)

// systemPrompt steers the model toward tool-grounded, concise answers.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content, equipped with tools for course information.

Tool usage:
- Use search_course_content for questions about specific course content or detailed educational materials
- Use get_course_outline for questions about a course's structure, its lessons or what it covers
- One tool call per query maximum
- If a tool yields no results, state that clearly without offering alternatives

Responses:
- Brief, concise and focused
- Answer general knowledge questions from your own knowledge without tools
- Do not mention the search process or that you used a tool`

// ChatModel is the generation capability the assistant needs.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentResponse, error)
}

// Answer is one completed assistant response.
type Answer struct {
	SessionID string          `json:"session_id"`
	Text      string          `json:"answer"`
	Sources   []models.Source `json:"sources"`
}

// Assistant orchestrates the question/tool/answer loop over a chat model.
type Assistant struct {
	model    ChatModel
	registry *tools.Registry
	sessions *session.Store
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewAssistant wires the orchestrator. A nil collector disables metrics.
func NewAssistant(model ChatModel, registry *tools.Registry, sessions *session.Store, collector *metrics.Collector, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Assistant{
		model:    model,
		registry: registry,
		sessions: sessions,
		metrics:  collector,
		logger:   logger,
	}
}

// Metrics returns the assistant's metrics collector.
func (a *Assistant) Metrics() *metrics.Collector {
	return a.metrics
}

// Answer produces a response to the question. An empty sessionID starts a
// new session; the returned Answer always carries the effective one.
//
// The model gets at most one tool round-trip: an initial generation with
// tools offered, then, if it called tools, a final generation over the
// tool results with no tools offered. Sources are carried per request, so
// concurrent turns in other sessions never see each other's.
func (a *Assistant) Answer(ctx context.Context, sessionID, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("question cannot be empty")
	}
	if sessionID == "" {
		sessionID = a.sessions.NewID()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, a.systemContent(sessionID)),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}

	resp, err := a.generate(ctx, messages, a.registry.Definitions())
	if err != nil {
		return Answer{}, err
	}

	var sources []models.Source
	choice := resp.Choices[0]
	if len(choice.ToolCalls) > 0 {
		messages, sources = a.appendToolRound(ctx, messages, choice)

		// Final answer over the tool results. No tools offered, so the
		// round-trip count is bounded by construction.
		resp, err = a.generate(ctx, messages, nil)
		if err != nil {
			return Answer{}, err
		}
		choice = resp.Choices[0]
	}

	answer := Answer{
		SessionID: sessionID,
		Text:      choice.Content,
		Sources:   sources,
	}
	a.sessions.AddExchange(sessionID, question, answer.Text)

	a.logger.Info("answer produced",
		"session", sessionID, "sources", len(answer.Sources), "chars", len(answer.Text))
	return answer, nil
}

// systemContent is the system prompt plus the session's recent history.
func (a *Assistant) systemContent(sessionID string) string {
	history := a.sessions.History(sessionID)
	if len(history) == 0 {
		return systemPrompt
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nPrevious conversation:\n")
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", turn.Text)
		case models.RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", turn.Text)
		}
	}
	return b.String()
}

// appendToolRound executes the choice's tool calls and appends both the
// assistant's call message and the tool result messages. Tool failures are
// reported back to the model as result text so it can still answer. Each
// successful retrieval replaces the sources of the previous one, so the
// returned slice reflects the last retrieval of the round.
func (a *Assistant) appendToolRound(ctx context.Context, messages []llms.MessageContent, choice *llms.ContentChoice) ([]llms.MessageContent, []models.Source) {
	assistantMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	for _, tc := range choice.ToolCalls {
		assistantMsg.Parts = append(assistantMsg.Parts, tc)
	}
	messages = append(messages, assistantMsg)

	var sources []models.Source
	for _, tc := range choice.ToolCalls {
		start := time.Now()
		res, err := a.registry.Execute(ctx, tc.FunctionCall.Name, json.RawMessage(tc.FunctionCall.Arguments))
		a.metrics.RecordTiming(metrics.OpToolExecute, time.Since(start))
		content := res.Text
		if err != nil {
			a.logger.Error("tool execution failed",
				"tool", tc.FunctionCall.Name, "error", err)
			content = fmt.Sprintf("Tool call failed: %v", err)
		} else {
			sources = res.Sources
		}

		messages = append(messages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    content,
				},
			},
		})
	}
	return messages, sources
}

func (a *Assistant) generate(ctx context.Context, messages []llms.MessageContent, defs []llms.Tool) (*llms.ContentResponse, error) {
	start := time.Now()
	resp, err := a.model.GenerateContent(ctx, messages, defs)
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.RecordTiming(metrics.OpLLMGenerate, elapsed)
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	in, out := tokenUsage(resp.Choices[0])
	a.metrics.RecordLLMUsage(metrics.OpLLMGenerate, elapsed, in, out)
	return resp, nil
}

// tokenUsage extracts token counts from generation info. Providers use
// different keys, so both naming schemes are tried.
func tokenUsage(choice *llms.ContentChoice) (int64, int64) {
	if choice == nil || choice.GenerationInfo == nil {
		return 0, 0
	}
	in := intFromInfo(choice.GenerationInfo, "InputTokens", "PromptTokens")
	out := intFromInfo(choice.GenerationInfo, "OutputTokens", "CompletionTokens")
	return in, out
}

func intFromInfo(info map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
