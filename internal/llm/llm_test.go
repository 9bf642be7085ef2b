package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProcessStream_ContentAndDone(t *testing.T) {
	sse := strings.Join([]string{
		`data: {"id":"1","choices":[{"index":0,"delta":{"content":"Hello"}}]}`,
		``,
		`data: {"id":"1","choices":[{"index":0,"delta":{"content":" world"}}]}`,
		``,
		`data: {"id":"1","choices":[],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")

	c := NewClient("http://unused", "key")
	var content strings.Builder
	var usage *Usage
	err := c.processStream(context.Background(), strings.NewReader(sse), func(ev StreamEvent) {
		switch ev.Type {
		case "content":
			content.WriteString(ev.Content)
		case "done":
			usage = ev.Usage
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := content.String(); got != "Hello world" {
		t.Errorf("content = %q", got)
	}
	if usage == nil || usage.TotalTokens != 7 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestProcessStream_MalformedChunksSkipped(t *testing.T) {
	sse := "data: not json\n\n" +
		`data: {"id":"1","choices":[{"index":0,"delta":{"content":"ok"}}]}` + "\n\n" +
		"data: [DONE]\n\n"

	c := NewClient("http://unused", "key")
	var got string
	err := c.processStream(context.Background(), strings.NewReader(sse), func(ev StreamEvent) {
		if ev.Type == "content" {
			got += ev.Content
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("content = %q", got)
	}
}

func TestProcessStream_APIError(t *testing.T) {
	sse := `data: {"id":"1","error":{"message":"rate limited","type":"rate_limit"}}` + "\n\n"

	c := NewClient("http://unused", "key")
	var errEvent string
	err := c.processStream(context.Background(), strings.NewReader(sse), func(ev StreamEvent) {
		if ev.Type == "error" {
			errEvent = ev.Error
		}
	})
	if !errors.Is(err, ErrStreamError) {
		t.Errorf("err = %v, want ErrStreamError", err)
	}
	if errEvent != "rate limited" {
		t.Errorf("error event = %q", errEvent)
	}
}

func TestChatStream_SendsSystemPromptFirst(t *testing.T) {
	var gotAuth string
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	err := c.ChatStream(context.Background(), "test-model", "be helpful", []Message{
		{Role: "user", Content: "hi"},
	}, func(StreamEvent) {})
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
	if !gotReq.Stream {
		t.Error("request should set stream: true")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "be helpful" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestChatStream_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong")
	err := c.ChatStream(context.Background(), "m", "", nil, func(StreamEvent) {})
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("err = %v, want ErrRequestFailed", err)
	}
}

func TestEstimateTokens(t *testing.T) {
	n, err := EstimateTokens("hello world, this is a test")
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 {
		t.Errorf("tokens = %d, want > 0", n)
	}
	if EstimateTokensSimple("") != 0 {
		t.Error("empty text should estimate 0 tokens")
	}
}
