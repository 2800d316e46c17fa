package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/scrapechat/config"
	"github.com/use-agent/scrapechat/models"
)

// Client is a lightweight OpenAI-compatible chat completion client. It uses
// net/http directly — no third-party SDK needed.
type Client struct {
	httpClient *http.Client
	cfg        config.LLMConfig
}

// NewClient creates a new LLM client with the given http.Client.
// Pass nil to use a default client.
func NewClient(httpClient *http.Client, cfg config.LLMConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, cfg: cfg}
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorResponse captures an API error from the LLM provider.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Generate answers a user question. When documentContext is non-empty the
// answer is grounded in that text via a system prompt.
func (c *Client) Generate(ctx context.Context, question, documentContext string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if documentContext != "" {
		messages = append(messages, chatMessage{Role: "system", Content: buildDocumentPrompt(documentContext)})
	}
	messages = append(messages, chatMessage{Role: "user", Content: question})

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   c.cfg.MaxTokens,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewChatError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewChatError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewChatError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewChatError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// buildDocumentPrompt grounds the answer in uploaded document text.
func buildDocumentPrompt(documentContext string) string {
	return fmt.Sprintf(`You are a helpful assistant. Answer the user's question using the following document as your primary source. If the document does not contain the answer, say so and answer from general knowledge.

Document:
%s`, documentContext)
}

// classifyLLMError maps HTTP status codes to appropriate error codes.
func classifyLLMError(statusCode int, body []byte) *models.ChatError {
	var errResp chatErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewChatError(models.ErrCodeUnauthorized, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewChatError(models.ErrCodeRateLimited, msg, nil)
	default:
		return models.NewChatError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
