package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/doczoek/chat-core/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubAnswerer struct {
	req    chat.AnswerRequest
	result *chat.AnswerResult
	err    error
}

func (s *stubAnswerer) Answer(ctx context.Context, req chat.AnswerRequest) (*chat.AnswerResult, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func doRequest(t *testing.T, answerer ChatAnswerer, body string) *httptest.ResponseRecorder {
	handler := ProvideChatHandler(answerer)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)
	return rec
}

func TestChatHandlerSuccess(t *testing.T) {
	stub := &stubAnswerer{result: &chat.AnswerResult{Text: "Antwoord [1]."}}

	rec := doRequest(t, stub, `{"question": "waar zit de voeding?", "organizationId": "tenant-a"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "waar zit de voeding?", stub.req.Question)
	assert.Equal(t, "tenant-a", stub.req.TenantID)
	assert.Equal(t, "user-token", stub.req.BearerToken)

	var result chat.AnswerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Antwoord [1].", result.Text)
}

func TestChatHandlerInvalidArgument(t *testing.T) {
	stub := &stubAnswerer{err: status.Error(codes.InvalidArgument, "question cannot be empty")}

	rec := doRequest(t, stub, `{"organizationId": "tenant-a"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandlerPermissionDenied(t *testing.T) {
	stub := &stubAnswerer{err: status.Error(codes.PermissionDenied, "not authorized")}

	rec := doRequest(t, stub, `{"question": "vraag", "organizationId": "tenant-b"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChatHandlerMalformedBody(t *testing.T) {
	stub := &stubAnswerer{}

	rec := doRequest(t, stub, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
