package llm

import (
	"context"

	"github.com/ollama/ollama/api"
)

type LLMClient interface {
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	// GenerateInferenceWithTools supports native tool calling. Exactly one of
	// the callbacks fires per call: contentCallback for a final answer,
	// toolCallback when the model requests tool invocations.
	GenerateInferenceWithTools(
		ctx context.Context,
		messages []Message,
		contentCallback func(chunk string) error,
		toolCallback func(toolCalls []ToolCall) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

// Embedder converts text into a dense vector.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, Usage, error)
}

// Usage is the token accounting reported by a single API call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ToolCall is a model-requested tool invocation. The function shape follows
// the ollama api types; ID is the provider's call id, used to key the tool
// result message back to the request.
type ToolCall struct {
	ID       string
	Function api.ToolCallFunction
}

type LLMSettings struct {
	model         string     // model name
	temperature   float64    // randomness (0.0 to 1.0)
	maxTokens     int        // maximum tokens to generate
	system        string     // system prompt
	tools         []api.Tool // tools to use for tool calling
	toolChoice    string     // "auto", "none" or "required"
	usageCallback func(Usage)
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func WithTools(tools []api.Tool) LLMOption {
	return func(s *LLMSettings) { s.tools = tools }
}

func WithToolChoice(choice string) LLMOption {
	return func(s *LLMSettings) { s.toolChoice = choice }
}

// WithUsageCallback reports token usage of the call. It is invoked after a
// successful response and must not fail the request.
func WithUsageCallback(cb func(Usage)) LLMOption {
	return func(s *LLMSettings) { s.usageCallback = cb }
}

// ApplyOptions folds opts into a settings struct. Intended for LLMClient
// implementations outside this package, including test doubles.
func ApplyOptions(opts ...LLMOption) *LLMSettings {
	s := &LLMSettings{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LLMSettings) Temperature() float64 { return s.temperature }
func (s *LLMSettings) MaxTokens() int       { return s.maxTokens }
func (s *LLMSettings) SystemPrompt() string { return s.system }
func (s *LLMSettings) Tools() []api.Tool    { return s.tools }
func (s *LLMSettings) ToolChoice() string   { return s.toolChoice }

// ReportUsage invokes the usage callback when one was set.
func (s *LLMSettings) ReportUsage(u Usage) {
	if s.usageCallback != nil {
		s.usageCallback(u)
	}
}

type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant" or "tool"
	Content string `json:"content"` // the message content

	// ToolCallID links a "tool" role message to the call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Name is the tool name for "tool" role messages.
	Name string `json:"name,omitempty"`
	// ToolCalls echoes the calls of an assistant message that requested tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}
