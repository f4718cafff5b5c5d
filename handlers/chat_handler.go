package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/doczoek/chat-core/chat"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ChatAnswerer is the part of the chat service the handler needs.
type ChatAnswerer interface {
	Answer(ctx context.Context, req chat.AnswerRequest) (*chat.AnswerResult, error)
}

type ChatHandler struct {
	service ChatAnswerer
}

func ProvideChatHandler(service ChatAnswerer) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Answer(r.Context(), chat.AnswerRequest{
		Question:       req.Question,
		TenantID:       req.OrganizationID,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		BearerToken:    bearerToken(r),
	})
	if err != nil {
		switch status.Code(err) {
		case codes.InvalidArgument:
			writeError(w, http.StatusBadRequest, status.Convert(err).Message())
		case codes.PermissionDenied:
			writeError(w, http.StatusForbidden, status.Convert(err).Message())
		default:
			logger.Error("chat request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error("failed to write chat response", zap.Error(err))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

type chatRequest struct {
	Question       string `json:"question"`
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}
