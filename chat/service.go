package chat

import (
	"context"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/doczoek/chat-core/llm"
	"github.com/doczoek/chat-core/prompts"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	candidateDocLimit   = 20
	signedURLTTLSeconds = 3600
)

// gpt-4o-mini pricing, USD per million tokens.
const (
	promptTokenCostPerMillion     = 0.15
	completionTokenCostPerMillion = 0.60
)

const greetingAnswer = "Hoi! Waarmee kan ik je helpen? Je kunt me vragen stellen over documenten, facturen, schema's en machines."

type ChatService struct {
	client    llm.LLMClient
	retriever ContextRetriever
	history   HistoryStore
	docs      DocumentStore
	machines  MachineStore
	signer    URLSigner
	tracker   UsageTracker
	auth      Authorizer
}

type ChatServiceConfig struct {
	Client    llm.LLMClient
	Retriever ContextRetriever
	History   HistoryStore
	Documents DocumentStore
	Machines  MachineStore
	Signer    URLSigner
	Tracker   UsageTracker
	Auth      Authorizer
}

func ProvideChatService(cfg ChatServiceConfig) *ChatService {
	return &ChatService{
		client:    cfg.Client,
		retriever: cfg.Retriever,
		history:   cfg.History,
		docs:      cfg.Documents,
		machines:  cfg.Machines,
		signer:    cfg.Signer,
		tracker:   cfg.Tracker,
		auth:      cfg.Auth,
	}
}

// Answer handles one chat question end to end: authorization, context
// resolution, the agent loop and document attachment. Only malformed input
// and authorization failures surface as errors; everything else degrades to
// a reduced but present answer.
func (s *ChatService) Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	startTime := time.Now()
	requestID := uuid.NewString()[:8]

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, status.Error(codes.InvalidArgument, "question cannot be empty")
	}
	if req.TenantID == "" {
		return nil, status.Error(codes.InvalidArgument, "organization id cannot be empty")
	}

	// Authorization runs before any paid API work.
	userID, err := s.auth.VerifyUser(ctx, req.BearerToken, req.TenantID)
	if err != nil {
		logger.Error("authorization failed", zap.String("requestId", requestID), zap.Error(err))
		return nil, status.Error(codes.PermissionDenied, "not authorized for this organization")
	}
	if req.UserID == "" {
		req.UserID = userID
	}

	history := s.loadHistory(ctx, req)
	convContext := BuildContext(history, question)
	intent := ClassifyIntent(question, history)
	searchTerms := ExtractSearchTerms(convContext.ResolvedQuestion)

	metadata := AnswerMetadata{
		RequestID:          requestID,
		ResolvedQuestion:   convContext.ResolvedQuestion,
		Intent:             intent,
		MentionedDocuments: convContext.MentionedDocuments,
		MentionedMachines:  convContext.MentionedMachines,
		SearchTerms:        searchTerms,
	}

	// Greetings never reach the completion API.
	if intent.IsGreeting {
		metadata.DurationMs = time.Since(startTime).Milliseconds()
		s.trackResponseTime(ctx, req.TenantID, requestID, metadata.DurationMs, question, greetingAnswer)
		return &AnswerResult{Text: greetingAnswer, Metadata: metadata}, nil
	}

	machineTask := s.lookupMachine(ctx, req.TenantID, convContext.MentionedMachines)
	candidatesTask := s.loadCandidateDocuments(ctx, req.TenantID)

	machine, err := async.Await(machineTask)
	if err != nil {
		logger.Error("machine lookup failed", zap.String("requestId", requestID), zap.Error(err))
	}
	candidates, err := async.Await(candidatesTask)
	if err != nil {
		logger.Error("candidate document lookup failed", zap.String("requestId", requestID), zap.Error(err))
	}
	metadata.CandidateDocuments = len(candidates)

	agent := NewAgentBuilder().
		WithClient(s.client).
		WithRetriever(s.retriever).
		WithSystemPrompt(s.buildSystemPrompt(convContext, machine)).
		Build()

	seed := append(lastN(history, agentHistoryWindow), llm.Message{
		Role:    "user",
		Content: convContext.ResolvedQuestion,
	})
	agentResult := agent.Execute(ctx, req.TenantID, seed)
	metadata.ToolCalls = agentResult.ToolCalls

	text := stripMarkdownLinks(agentResult.Text)
	var attached []DocumentLink
	if intent.WantsDocument || intent.WantsAllDocs {
		attached = s.attachDocuments(ctx, convContext, intent, candidates)
		text = appendDocumentLinks(text, attached)
	}

	metadata.DurationMs = time.Since(startTime).Milliseconds()
	s.trackCompletionUsage(ctx, req.TenantID, requestID, agentResult.Usage, question, text)
	s.trackResponseTime(ctx, req.TenantID, requestID, metadata.DurationMs, question, text)

	return &AnswerResult{
		Text:              text,
		Usage:             agentResult.Usage,
		AttachedDocuments: attached,
		Metadata:          metadata,
	}, nil
}

// loadHistory fetches and normalizes recent conversation turns. Failures
// degrade to an empty history.
func (s *ChatService) loadHistory(ctx context.Context, req AnswerRequest) []llm.Message {
	stored, err := s.history.LoadRecentMessages(ctx, req.TenantID, req.UserID, req.ConversationID, historyFetchLimit)
	if err != nil {
		logger.Error("failed to load conversation history", zap.Error(err))
		return nil
	}
	return normalizeHistory(stored)
}

// lookupMachine resolves the most recently mentioned machine identifier to a
// structured record. No mention or no record yields nil without error.
func (s *ChatService) lookupMachine(ctx context.Context, tenantID string, mentionedMachines []string) <-chan async.Result[*Machine] {
	return async.Go(func() (*Machine, error) {
		if len(mentionedMachines) == 0 {
			return nil, nil
		}
		code := mentionedMachines[len(mentionedMachines)-1]
		return s.machines.GetMachineByCode(ctx, tenantID, code)
	})
}

func (s *ChatService) loadCandidateDocuments(ctx context.Context, tenantID string) <-chan async.Result[[]Document] {
	return async.Go(func() ([]Document, error) {
		return s.docs.GetDocumentsByNamePattern(ctx, tenantID, "", true, candidateDocLimit)
	})
}

func (s *ChatService) buildSystemPrompt(convContext ConversationContext, machine *Machine) string {
	data := prompts.ChatSystemData{
		Today:              time.Now().Format("2006-01-02"),
		MentionedDocuments: convContext.MentionedDocuments,
		MentionedMachines:  convContext.MentionedMachines,
	}
	if machine != nil {
		data.Machine = &prompts.MachineDetails{
			Code:        machine.Code,
			Name:        machine.Name,
			Description: machine.Description,
			Location:    machine.Location,
		}
	}

	prompt, err := prompts.RenderChatSystemPrompt(data)
	if err != nil {
		logger.Error("failed to render system prompt", zap.Error(err))
		return "Je bent een technische assistent. Antwoord in het Nederlands, kort en concreet."
	}
	return prompt
}

// attachDocuments selects the documents to link and signs their storage
// paths. Signing falls back to the raw path inside the signer, so every
// selected document yields a link.
func (s *ChatService) attachDocuments(ctx context.Context, convContext ConversationContext, intent Intent, candidates []Document) []DocumentLink {
	selected := SelectDocuments(convContext.ResolvedQuestion, candidates, intent.WantsAllDocs, convContext.MentionedMachines)

	links := make([]DocumentLink, 0, len(selected))
	for _, doc := range selected {
		links = append(links, DocumentLink{
			Name:    doc.Name,
			FileURL: s.signer.SignObjectURL(ctx, doc.StoragePath, signedURLTTLSeconds),
		})
	}
	return links
}

func (s *ChatService) trackCompletionUsage(ctx context.Context, tenantID, requestID string, usage llm.Usage, question, answer string) {
	err := s.tracker.TrackUsage(ctx, tenantID, UsageEvent{
		RequestID:        requestID,
		EventType:        "chat_completion",
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CostUSD:          estimateCostUSD(usage),
		QuestionLength:   len(question),
		ResponseLength:   len(answer),
	})
	if err != nil {
		logger.Error("failed to track completion usage", zap.String("requestId", requestID), zap.Error(err))
	}
}

func (s *ChatService) trackResponseTime(ctx context.Context, tenantID, requestID string, durationMs int64, question, answer string) {
	err := s.tracker.TrackUsage(ctx, tenantID, UsageEvent{
		RequestID:      requestID,
		EventType:      "response_time",
		DurationMs:     durationMs,
		QuestionLength: len(question),
		ResponseLength: len(answer),
	})
	if err != nil {
		logger.Error("failed to track response time", zap.String("requestId", requestID), zap.Error(err))
	}
}

func estimateCostUSD(usage llm.Usage) float64 {
	return float64(usage.PromptTokens)*promptTokenCostPerMillion/1e6 +
		float64(usage.CompletionTokens)*completionTokenCostPerMillion/1e6
}
