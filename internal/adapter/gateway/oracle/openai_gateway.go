package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
)

// chatClient is the slice of the OpenAI client the gateway uses.
// Tests substitute a stub.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGateway invokes an OpenAI-compatible chat completion endpoint
// with function calling for the tool protocol.
type OpenAIGateway struct {
	client chatClient
	model  string
}

// NewOpenAIGateway creates a gateway for the given API key and model
func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	return &OpenAIGateway{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAIGatewayWithClient wires a custom client (tests, proxies)
func NewOpenAIGatewayWithClient(client chatClient, model string) *OpenAIGateway {
	return &OpenAIGateway{client: client, model: model}
}

func (g *OpenAIGateway) Name() string { return "openai" }

// Invoke sends the conversation and tool schemas, returning the
// model's next step. Retryable failures are wrapped as transient so
// the retry layer can tell them apart from permanent faults.
func (g *OpenAIGateway) Invoke(ctx context.Context, messages []conversation.Message, tools []output.ToolSchema) (*output.OracleResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: encodeMessages(messages),
		Tools:    encodeTools(tools),
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("oracle returned no choices")
	}

	choice := resp.Choices[0].Message
	out := &output.OracleResponse{
		Content:    choice.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}
	for _, tc := range choice.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode arguments for tool call %s (%s): %w", tc.ID, tc.Function.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, conversation.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

// encodeMessages maps the domain conversation onto the chat wire
// format: assistant tool calls become function calls, tool results
// reference their call ID.
func encodeMessages(messages []conversation.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		cm := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

func encodeTools(tools []output.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// classifyError marks rate limits, server errors, and network faults
// as transient; everything else (bad request, auth) is permanent.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return &output.TransientError{Err: err}
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &output.TransientError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &output.TransientError{Err: err}
	}
	return err
}
