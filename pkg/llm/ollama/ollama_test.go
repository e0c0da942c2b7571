package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/psplover16/line-ai-rebot/pkg/llm"
	"github.com/psplover16/line-ai-rebot/pkg/llm/ollama"
)

// chatHandler returns an /api/chat handler that replies with the given
// content and counts attempts.
func chatHandler(content string, attempts *int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(attempts, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": content},
			"done":    true,
		})
	}
}

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		attempts int64
	)

	BeforeEach(func() {
		ctx = context.Background()
		attempts = 0
	})

	Describe("Chat", func() {
		It("returns the assistant's trimmed content", func() {
			server := httptest.NewServer(chatHandler("  hello there \n", &attempts))
			defer server.Close()

			client := ollama.NewClient(ollama.Config{BaseURL: server.URL})
			text, err := client.Chat(ctx, "test-model", []llm.Message{llm.User("hi")})

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("hello there"))
			Expect(attempts).To(BeEquivalentTo(1))
		})

		It("sends the full message sequence without streaming", func() {
			var got struct {
				Model    string        `json:"model"`
				Stream   bool          `json:"stream"`
				Messages []llm.Message `json:"messages"`
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				_ = json.NewEncoder(w).Encode(map[string]any{
					"message": map[string]string{"role": "assistant", "content": "ok"},
				})
			}))
			defer server.Close()

			client := ollama.NewClient(ollama.Config{BaseURL: server.URL})
			_, err := client.Chat(ctx, "qwen2.5:7b", []llm.Message{
				llm.System("persona"),
				llm.User("earlier"),
				llm.Assistant("reply"),
				llm.User("latest"),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(got.Model).To(Equal("qwen2.5:7b"))
			Expect(got.Stream).To(BeFalse())
			Expect(got.Messages).To(HaveLen(4))
			Expect(got.Messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(got.Messages[3].Content).To(Equal("latest"))
		})

		It("treats missing content as an empty reply, not a failure", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"done": true})
			}))
			defer server.Close()

			client := ollama.NewClient(ollama.Config{BaseURL: server.URL})
			text, err := client.Chat(ctx, "test-model", []llm.Message{llm.User("hi")})

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())
		})

		It("makes exactly 1+MaxRetries attempts against a failing endpoint", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt64(&attempts, 1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			client := ollama.NewClient(ollama.Config{BaseURL: server.URL, MaxRetries: 2})
			_, err := client.Chat(ctx, "test-model", []llm.Message{llm.User("hi")})

			Expect(err).To(MatchError(llm.ErrExhausted))
			Expect(attempts).To(BeEquivalentTo(3))
		})

		It("recovers when a later attempt succeeds", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if atomic.AddInt64(&attempts, 1) == 1 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]any{
					"message": map[string]string{"role": "assistant", "content": "recovered"},
				})
			}))
			defer server.Close()

			client := ollama.NewClient(ollama.Config{BaseURL: server.URL, MaxRetries: 2})
			text, err := client.Chat(ctx, "test-model", []llm.Message{llm.User("hi")})

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("recovered"))
			Expect(attempts).To(BeEquivalentTo(2))
		})

		It("wraps exhaustion distinctly from transport errors", func() {
			// Point at a closed port so every attempt fails at dial time.
			client := ollama.NewClient(ollama.Config{BaseURL: "http://127.0.0.1:1", MaxRetries: 1})
			_, err := client.Chat(ctx, "test-model", []llm.Message{llm.User("hi")})

			Expect(err).To(MatchError(llm.ErrExhausted))
		})
	})
})
