package chat

import (
	"context"
	"regexp"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/doczoek/chat-core/llm"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// agent loop parameters.
const (
	maxAgentIterations = 3
	agentMaxTokens     = 1000
	retrieveToolName   = "retrieve"
)

// fallbackAnswer is returned when the loop exhausts its iterations without a
// final message, or every completion call failed.
const fallbackAnswer = "Sorry, ik kon geen antwoord genereren. Kun je je vraag anders formuleren?"

// noSectionsFound is the tool result when retrieval yields nothing usable.
const noSectionsFound = "Er zijn geen relevante documenten gevonden voor deze zoekopdracht."

// agentState tracks the loop's position between completion calls.
type agentState int

const (
	stateAwaitingCompletion agentState = iota
	stateToolExecuting
	stateFinal
)

// ContextRetriever is the single tool surface exposed to the model.
type ContextRetriever interface {
	Retrieve(ctx context.Context, tenantID, query string) (string, []RetrievedSection, error)
}

type AgentConfig struct {
	Client        llm.LLMClient
	Retriever     ContextRetriever
	SystemPrompt  string
	MaxIterations int
	MaxTokens     int
}

// Agent runs the bounded completion/tool-call loop for one request. Not
// reusable across requests; build a fresh one per question.
type Agent struct {
	config AgentConfig
}

type AgentBuilder struct {
	config AgentConfig
}

func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{
		config: AgentConfig{
			MaxIterations: maxAgentIterations,
			MaxTokens:     agentMaxTokens,
		},
	}
}

func (b *AgentBuilder) WithClient(client llm.LLMClient) *AgentBuilder {
	b.config.Client = client
	return b
}

func (b *AgentBuilder) WithRetriever(retriever ContextRetriever) *AgentBuilder {
	b.config.Retriever = retriever
	return b
}

func (b *AgentBuilder) WithSystemPrompt(prompt string) *AgentBuilder {
	b.config.SystemPrompt = prompt
	return b
}

func (b *AgentBuilder) WithMaxIterations(max int) *AgentBuilder {
	b.config.MaxIterations = max
	return b
}

func (b *AgentBuilder) WithMaxTokens(max int) *AgentBuilder {
	b.config.MaxTokens = max
	return b
}

func (b *AgentBuilder) Build() *Agent {
	return &Agent{config: b.config}
}

// AgentResult carries the loop's outcome: final text, summed token usage over
// every completion call, and the sections the tool surfaced along the way.
type AgentResult struct {
	Text      string
	Usage     llm.Usage
	ToolCalls int
	Sections  []RetrievedSection
}

// Execute drives the state machine until the model produces a message without
// tool calls or the iteration cap is hit. A completion-call failure does not
// abort the loop; the next iteration may still succeed from conversational
// context alone. The result always carries a non-empty Text.
func (a *Agent) Execute(ctx context.Context, tenantID string, messages []llm.Message) *AgentResult {
	result := &AgentResult{}
	state := stateAwaitingCompletion

	for iteration := 0; iteration < a.config.MaxIterations && state != stateFinal; iteration++ {
		var content strings.Builder
		var requested []llm.ToolCall

		err := a.config.Client.GenerateInferenceWithTools(
			ctx, messages,
			func(chunk string) error {
				content.WriteString(chunk)
				return nil
			},
			func(calls []llm.ToolCall) error {
				requested = append(requested, calls...)
				return nil
			},
			llm.WithSystemPrompt(a.config.SystemPrompt),
			llm.WithTools([]api.Tool{retrieveTool()}),
			llm.WithToolChoice("auto"),
			llm.WithTemperature(0),
			llm.WithMaxTokens(a.config.MaxTokens),
			llm.WithUsageCallback(func(u llm.Usage) { result.Usage.Add(u) }),
		)
		if err != nil {
			logger.Error("completion call failed", zap.Int("iteration", iteration), zap.Error(err))
			continue
		}

		if len(requested) == 0 {
			result.Text = content.String()
			state = stateFinal
			break
		}

		state = stateToolExecuting
		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   content.String(),
			ToolCalls: requested,
		})
		for _, call := range requested {
			result.ToolCalls++
			messages = append(messages, a.runTool(ctx, tenantID, call, result))
		}
		state = stateAwaitingCompletion
	}

	if result.Text == "" {
		result.Text = fallbackAnswer
	}
	return result
}

// runTool executes a requested tool call and returns the tool result message
// keyed to the call. Only retrieve is defined; an unknown tool name or a
// failed retrieval yields a "nothing found" result so the loop keeps going.
func (a *Agent) runTool(ctx context.Context, tenantID string, call llm.ToolCall, result *AgentResult) llm.Message {
	msg := llm.Message{
		Role:       "tool",
		Name:       call.Function.Name,
		ToolCallID: call.ID,
		Content:    noSectionsFound,
	}

	if call.Function.Name != retrieveToolName {
		logger.Error("model requested unknown tool", zap.String("tool", call.Function.Name))
		return msg
	}

	query, _ := call.Function.Arguments["query"].(string)
	if query == "" {
		return msg
	}

	serialized, sections, err := a.config.Retriever.Retrieve(ctx, tenantID, query)
	if err != nil {
		logger.Error("retrieval failed", zap.String("query", query), zap.Error(err))
		return msg
	}

	result.Sections = append(result.Sections, sections...)
	if serialized != "" {
		msg.Content = serialized
	}
	return msg
}

func retrieveTool() api.Tool {
	tool := api.Tool{
		Type: "function",
		Function: api.ToolFunction{
			Name:        retrieveToolName,
			Description: "Zoekt relevante documentsecties voor een zoekopdracht. Gebruik dit voor vragen over documenten, facturen, schema's of machines.",
		},
	}
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Properties = map[string]api.ToolProperty{
		"query": {
			Type:        api.PropertyType{"string"},
			Description: "De zoekopdracht, in de taal van de gebruiker.",
		},
	}
	tool.Function.Parameters.Required = []string{"query"}
	return tool
}

var markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)

// stripMarkdownLinks unwraps inline markdown links, keeping the link text.
// The model sometimes invents its own links; attached documents are appended
// separately so these would duplicate or point nowhere.
func stripMarkdownLinks(text string) string {
	return markdownLinkPattern.ReplaceAllString(text, "$1")
}

// appendDocumentLinks adds the resolved document links below the answer.
func appendDocumentLinks(text string, links []DocumentLink) string {
	if len(links) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n")
	for _, link := range links {
		b.WriteString("\n")
		b.WriteString(link.Name)
		b.WriteString(": ")
		b.WriteString(link.FileURL)
	}
	return b.String()
}
