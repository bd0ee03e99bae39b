package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/megumi-soft/slack-chatgpt/common/llm"
)

type capturedRequest struct {
	Path          string
	Authorization string
	Body          map[string]any
}

func completionServer(status int, body string, captured *capturedRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		captured.Path = r.URL.Path
		captured.Authorization = r.Header.Get("Authorization")
		_ = json.Unmarshal(raw, &captured.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

const okCompletion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o",
	"choices": [
		{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hello from the model"}}
	],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

var _ = Describe("OpenAI client", func() {
	var (
		server   *httptest.Server
		captured capturedRequest
		client   llm.Client
	)

	newClient := func(body string, status int) {
		captured = capturedRequest{}
		server = completionServer(status, body, &captured)
		var err error
		client, err = llm.New(llm.Config{
			APIKey:  "sk-test",
			BaseURL: server.URL + "/",
			Model:   "gpt-4o",
		})
		Expect(err).NotTo(HaveOccurred())
	}

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("requires an API key", func() {
		_, err := llm.New(llm.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("defaults the model", func() {
		c, err := llm.New(llm.Config{APIKey: "sk-test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Model()).To(Equal("gpt-4o"))
	})

	It("sends messages in order and returns the first choice", func() {
		newClient(okCompletion, http.StatusOK)

		reply, err := client.Complete(context.Background(), []llm.Message{
			llm.SystemMessage("persona"),
			llm.UserMessage("question"),
			llm.AssistantMessage("earlier answer"),
			llm.SystemMessage("Content of http://example.com\n---\nbody"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Hello from the model"))

		Expect(captured.Path).To(Equal("/chat/completions"))
		Expect(captured.Authorization).To(Equal("Bearer sk-test"))
		Expect(captured.Body["model"]).To(Equal("gpt-4o"))

		messages, ok := captured.Body["messages"].([]any)
		Expect(ok).To(BeTrue())
		Expect(messages).To(HaveLen(4))

		roles := make([]string, 0, len(messages))
		for _, m := range messages {
			roles = append(roles, m.(map[string]any)["role"].(string))
		}
		Expect(roles).To(Equal([]string{"system", "user", "assistant", "system"}))
		Expect(messages[1].(map[string]any)["content"]).To(Equal("question"))
	})

	It("fails when the API returns an error status", func() {
		newClient(`{"error": {"message": "boom", "type": "server_error"}}`, http.StatusInternalServerError)

		_, err := client.Complete(context.Background(), []llm.Message{llm.UserMessage("hi")})
		Expect(err).To(HaveOccurred())
	})

	It("fails when the response has no choices", func() {
		newClient(`{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4o", "choices": []}`, http.StatusOK)

		_, err := client.Complete(context.Background(), []llm.Message{llm.UserMessage("hi")})
		Expect(err).To(MatchError(llm.ErrNoChoices))
	})

	It("fails when the first choice has no content", func() {
		newClient(`{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4o",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": ""}}]}`, http.StatusOK)

		_, err := client.Complete(context.Background(), []llm.Message{llm.UserMessage("hi")})
		Expect(err).To(MatchError(llm.ErrEmptyContent))
	})
})
