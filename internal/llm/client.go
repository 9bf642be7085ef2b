package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Jedanoski/claude-coder/internal/logging"
)

var (
	ErrRequestFailed = errors.New("API request failed")
	ErrStreamError   = errors.New("stream error")
	log              = logging.Get()
)

// Client handles communication with the model API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new model API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// StreamCallback is called for each event in the stream.
type StreamCallback func(event StreamEvent)

// ChatStream sends a chat request and streams the response. The callback
// receives content chunks in arrival order; feeding them to the tag
// parser is the caller's job.
func (c *Client) ChatStream(ctx context.Context, model, systemPrompt string, messages []Message, callback StreamCallback) error {
	allMessages := make([]Message, 0, len(messages)+1)
	allMessages = append(allMessages, Message{
		Role:    "system",
		Content: systemPrompt,
	})
	allMessages = append(allMessages, messages...)

	reqBody := ChatRequest{
		Model:    model,
		Messages: allMessages,
		Stream:   true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Debug("HTTP POST %s/chat/completions (model: %s, messages: %d)",
		c.baseURL, model, len(allMessages))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("HTTP request failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	log.Debug("HTTP response status: %d", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("API error %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("%w: %d - %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads SSE events and calls the callback for each.
func (c *Client) processStream(ctx context.Context, reader io.Reader, callback StreamCallback) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lastUsage *Usage
	log.Debug("Starting SSE stream processing")

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		// SSE format: "data: {json}"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		if data == "[DONE]" {
			callback(StreamEvent{Type: "done", Usage: lastUsage})
			return nil
		}

		var resp ChatResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			continue // Skip malformed chunks
		}

		if resp.Error != nil {
			callback(StreamEvent{
				Type:  "error",
				Error: resp.Error.Message,
			})
			return fmt.Errorf("%w: %s", ErrStreamError, resp.Error.Message)
		}

		if resp.Usage != nil {
			lastUsage = resp.Usage
		}

		if len(resp.Choices) == 0 {
			continue
		}

		choice := resp.Choices[0]
		delta := choice.Delta
		if delta == nil {
			delta = choice.Message
		}
		if delta == nil {
			continue
		}

		if delta.Content != "" {
			callback(StreamEvent{
				Type:    "content",
				Content: delta.Content,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		// When the context is canceled (user abort), the HTTP body closes
		// and the scanner sees an IO error. Return the context error so
		// callers can detect the cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("SSE scanner error: %v", err)
		return err
	}

	callback(StreamEvent{Type: "done", Usage: lastUsage})
	return nil
}
