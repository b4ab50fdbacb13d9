//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math"

	"clinical-assist-be/internal/config"
	"clinical-assist-be/pkg/embedding"
)

// CosineSimilarity calculates similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	fmt.Println("--- Initializing Providers ---")
	gemini := embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	nomic := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)

	// Snippets close to what the seed command inserts. text1/text2 should score
	// high against each other, text3 should not.
	text1 := "Patient reports intermittent chest pain radiating to the left arm"
	text2 := "Complains of recurring chest discomfort spreading toward the left shoulder"
	text3 := "Annual flu vaccination administered, no adverse reaction observed"

	fmt.Println("\n--- Generating Embeddings ---")

	generate := func(name string, p embedding.Provider, t1, t2, t3 string) ([]float32, []float32, []float32) {
		fmt.Printf("\n[%s] Generating...\n", name)

		v1, err := p.Embed(ctx, t1, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Error %s (Text 1): %v", name, err)
			return nil, nil, nil
		}
		fmt.Printf("[%s] Text 1 Dimensions: %d\n", name, len(v1))

		v2, err := p.Embed(ctx, t2, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Error %s (Text 2): %v", name, err)
			return nil, nil, nil
		}

		v3, err := p.Embed(ctx, t3, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Error %s (Text 3): %v", name, err)
			return nil, nil, nil
		}

		return v1, v2, v3
	}

	g1, g2, g3 := generate("GEMINI", gemini, text1, text2, text3)
	n1, n2, n3 := generate("NOMIC", nomic, text1, text2, text3)

	fmt.Println("\n--- Semantic Similarity Comparison ---")
	fmt.Println("(Higher is better, 1.0 = identical)")

	if g1 != nil {
		fmt.Printf("[GEMINI] similar pair:   %.4f\n", CosineSimilarity(g1, g2))
		fmt.Printf("[GEMINI] unrelated pair: %.4f\n", CosineSimilarity(g1, g3))
	}
	if n1 != nil {
		fmt.Printf("[NOMIC]  similar pair:   %.4f\n", CosineSimilarity(n1, n2))
		fmt.Printf("[NOMIC]  unrelated pair: %.4f\n", CosineSimilarity(n1, n3))
	}
}
