// Package openai implements ports.Reasoner on an OpenAI-compatible
// chat-completions API with tool calling.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = openai.GPT4oMini

// ChatClient is the subset of *openai.Client the reasoner needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config selects the endpoint and model.
type Config struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`

	// RequestsPerSecond limits outgoing calls; 0 disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Reasoner is safe for concurrent use.
type Reasoner struct {
	client  ChatClient
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.Reasoner = (*Reasoner)(nil)

// Option configures the Reasoner.
type Option func(*Reasoner)

// WithLogger configures a logger for API calls.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reasoner) {
		r.logger = logger
	}
}

// New creates a Reasoner talking to cfg.BaseURL (api.openai.com when empty).
func New(cfg Config, opts ...Option) (*Reasoner, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: an API key or a base URL is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewWithClient(openai.NewClientWithConfig(clientCfg), cfg, opts...), nil
}

// NewWithClient creates a Reasoner over any ChatClient, such as a test double.
func NewWithClient(client ChatClient, cfg Config, opts ...Option) *Reasoner {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	r := &Reasoner{
		client: client,
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reason sends the prompt, conversation and tools and converts the first
// choice back into a controller reply.
func (r *Reasoner) Reason(ctx context.Context, req ports.ReasoningRequest) (domain.Message, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return domain.Message{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Temperature: r.cfg.Temperature,
		Messages:    toMessages(req.Prompt, req.Conversation),
		Tools:       toTools(req.Tools),
	}

	resp, err := r.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return domain.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	r.logger.Debug("chat completion",
		"controller", req.Controller,
		"model", r.cfg.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	if len(resp.Choices) == 0 {
		// An empty reply lets the controller retry with a corrective note.
		return domain.ReplyMessage(""), nil
	}
	return fromMessage(resp.Choices[0].Message)
}

func toMessages(prompt string, conv []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(conv)+1)
	if prompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt})
	}
	for _, m := range conv {
		switch m.Role {
		case domain.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})
		case domain.RoleController:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text}
			for _, a := range m.Actions {
				args, err := json.Marshal(a.Arguments)
				if err != nil || a.Arguments == nil {
					args = []byte("{}")
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   a.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      a.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, msg)
		case domain.RoleTool:
			if m.Result == nil {
				continue
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Result.Text,
				Name:       m.Result.Name,
				ToolCallID: m.Result.ActionID,
			})
		}
	}
	return out
}

func toTools(tools []domain.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		}
	}
	return out
}

func fromMessage(msg openai.ChatCompletionMessage) (domain.Message, error) {
	actions := make([]domain.ActionRequest, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		var args map[string]any
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return domain.Message{}, fmt.Errorf("failed to unmarshal arguments of %s: %w", call.Function.Name, err)
			}
		}
		actions = append(actions, domain.ActionRequest{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}
	return domain.ReplyMessage(msg.Content, actions...), nil
}
