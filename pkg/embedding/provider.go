package embedding

import "context"

// Task types hint the provider at how the vector will be used. Ollama ignores
// them; Gemini tunes the embedding.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider converts text into a fixed-length vector. Implementations are safe
// for concurrent use.
type Provider interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}
