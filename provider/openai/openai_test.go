package openai_provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(chatURL, embeddingURL string) *client {
	c := NewOpenAIClient("test-key", "gpt-4o-mini", "text-embedding-3-small", 0.2, 256, 5*time.Second)
	if chatURL != "" {
		c.chatURL = chatURL
	}
	if embeddingURL != "" {
		c.embeddingURL = embeddingURL
	}
	return c
}

func TestEmbedBatchesAndOrdersByIndex(t *testing.T) {
	var gotBody struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// Return vectors out of order; index is authoritative.
		fmt.Fprint(w, `{"data":[
			{"object":"embedding","embedding":[0,1],"index":1},
			{"object":"embedding","embedding":[1,0],"index":0}
		]}`)
	}))
	defer srv.Close()

	c := testClient("", srv.URL)
	vecs, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if gotBody.Model != "text-embedding-3-small" {
		t.Fatalf("model = %q", gotBody.Model)
	}
	if len(gotBody.Input) != 2 {
		t.Fatalf("inputs sent = %d, want one batched call with 2", len(gotBody.Input))
	}
	if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Fatalf("vectors not reordered by index: %v", vecs)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"object":"embedding","embedding":[1,0],"index":0}]}`)
	}))
	defer srv.Close()

	c := testClient("", srv.URL)
	if _, err := c.Embed(context.Background(), []string{"first", "second"}); err == nil {
		t.Fatal("expected error on short response")
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := testClient("", "http://unreachable.invalid")
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("empty input: vecs=%v err=%v", vecs, err)
	}
}

func TestEmbedNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient("", srv.URL)
	if _, err := c.Embed(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestComplete(t *testing.T) {
	var gotReq request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"the reply"}}]}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "")
	answer, err := c.Complete(context.Background(), "be terse", "what is this?")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if answer != "the reply" {
		t.Fatalf("answer = %q", answer)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", gotReq.Model)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "")
	if _, err := c.Complete(context.Background(), "sys", "usr"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
