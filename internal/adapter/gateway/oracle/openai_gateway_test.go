package oracle

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
)

type chatClientStub struct {
	gotReq openai.ChatCompletionRequest
	resp   openai.ChatCompletionResponse
	err    error
}

func (s *chatClientStub) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.gotReq = req
	return s.resp, s.err
}

func TestOpenAIGateway_EncodesConversation(t *testing.T) {
	stub := &chatClientStub{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "done"}}},
		Usage:   openai.Usage{TotalTokens: 42},
	}}
	g := NewOpenAIGatewayWithClient(stub, "test-model")

	messages := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "be helpful"},
		{Role: conversation.RoleAssistant, Content: "", ToolCalls: []conversation.ToolCall{
			{ID: "c1", Name: "git_status", Arguments: map[string]interface{}{"short": true}},
		}},
		{Role: conversation.RoleTool, Content: "clean", ToolCallID: "c1"},
	}
	tools := []output.ToolSchema{{Name: "git_status", Description: "show status", Parameters: map[string]interface{}{"type": "object"}}}

	resp, err := g.Invoke(context.Background(), messages, tools)
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content)
	assert.Equal(t, 42, resp.TokensUsed)

	req := stub.gotReq
	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "system", req.Messages[0].Role)
	require.Len(t, req.Messages[1].ToolCalls, 1)
	assert.Equal(t, "git_status", req.Messages[1].ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"short":true}`, req.Messages[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "c1", req.Messages[2].ToolCallID)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "git_status", req.Tools[0].Function.Name)
}

func TestOpenAIGateway_DecodesToolCalls(t *testing.T) {
	stub := &chatClientStub{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{
			ToolCalls: []openai.ToolCall{{
				ID:   "call-1",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      "fetch_issue",
					Arguments: `{"ref":"owner/repo#42"}`,
				},
			}},
		}}},
	}}
	g := NewOpenAIGatewayWithClient(stub, "m")

	resp, err := g.Invoke(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call-1", resp.ToolCalls[0].ID)
	assert.Equal(t, "fetch_issue", resp.ToolCalls[0].Name)
	assert.Equal(t, "owner/repo#42", resp.ToolCalls[0].Arguments["ref"])
}

func TestOpenAIGateway_MalformedArguments(t *testing.T) {
	stub := &chatClientStub{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{
			ToolCalls: []openai.ToolCall{{
				ID:       "call-1",
				Function: openai.FunctionCall{Name: "x", Arguments: "{broken"},
			}},
		}}},
	}}
	g := NewOpenAIGatewayWithClient(stub, "m")

	_, err := g.Invoke(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestOpenAIGateway_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"rate limit", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"auth failure", &openai.APIError{HTTPStatusCode: 401}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewOpenAIGatewayWithClient(&chatClientStub{err: tt.err}, "m")
			_, err := g.Invoke(context.Background(), nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.transient, output.IsTransient(err))
		})
	}
}

func TestOpenAIGateway_NoChoices(t *testing.T) {
	g := NewOpenAIGatewayWithClient(&chatClientStub{}, "m")
	_, err := g.Invoke(context.Background(), nil, nil)
	assert.Error(t, err)
}
