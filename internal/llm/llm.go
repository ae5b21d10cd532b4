// Package llm wraps a chat model behind the two capability methods the
// pipeline consumes: free-text completion and structured (closed-schema
// JSON) completion.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Client is the language-model collaborator. Free-text output is used
// verbatim by callers; structured output either conforms to the target
// shape or the call fails.
type Client interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
	Structured(ctx context.Context, messages []*schema.Message, out any) error
}

// ChatClient implements Client on top of any eino chat model.
type ChatClient struct {
	model model.BaseChatModel
}

func NewChatClient(m model.BaseChatModel) *ChatClient {
	return &ChatClient{model: m}
}

// Complete returns the model reply as trimmed raw text.
func (c *ChatClient) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	msg, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return strings.TrimSpace(msg.Content), nil
}

// Structured completes the prompt and decodes the reply as JSON into out.
// Markdown fences around the payload are tolerated; anything that does not
// decode into the target shape fails the call.
func (c *ChatClient) Structured(ctx context.Context, messages []*schema.Message, out any) error {
	msg, err := c.model.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("structured completion: %w", err)
	}
	payload := extractJSON(msg.Content)
	if payload == "" {
		return fmt.Errorf("structured completion returned no JSON object: %q", msg.Content)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("structured completion did not conform to the expected shape: %w", err)
	}
	return nil
}

// extractJSON isolates the outermost JSON object in a model reply.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
