// File path: internal/llm/providers/provider.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// Message is one chat turn sent to a completion service.
type Message struct {
	Role    string
	Content string
}

// Provider is the narrow contract the assistant needs from a language-model
// service: free-form completions, JSON-constrained completions, and
// embeddings.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	ChatJSON(ctx context.Context, messages []Message) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

// LocalProvider is a deterministic offline fallback. Chat echoes, ChatJSON
// yields an empty object (which downstream planning treats as a no-op plan),
// and Embed hashes tokens into a fixed-dimension bag-of-words vector so
// similarity retrieval still ranks sensibly without a remote model.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

const localEmbedDim = 64

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) ChatJSON(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	return "{}", nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vectors[i] = hashEmbed(text)
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}

func hashEmbed(text string) []float32 {
	vec := make([]float32, localEmbedDim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(token, ".,:;()'\"")))
		vec[h.Sum32()%localEmbedDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
