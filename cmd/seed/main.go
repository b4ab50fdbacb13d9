// Seeds a handful of encrypted demo records so the query pipeline can be
// exercised locally. Requires a reachable embedding provider and a migrated
// database.
package main

import (
	"context"
	"log"
	"time"

	"clinical-assist-be/internal/config"
	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/repository/implementation"
	"clinical-assist-be/pkg/database"
	"clinical-assist-be/pkg/embedding"
	"clinical-assist-be/pkg/encryption"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

type demoRecord struct {
	patientID  string
	sourceType string
	recordedAt time.Time
	snippet    string
}

var demoRecords = []demoRecord{
	{"P1", "progress_note", time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		"Day 3 post-admission. Patient stable on metformin 500mg bid and lisinopril 10mg daily. Blood glucose trending down."},
	{"P1", "lab_report", time.Date(2026, 2, 15, 7, 0, 0, 0, time.UTC),
		"HbA1c 8.2% (high). Fasting glucose 162 mg/dL. eGFR 74 mL/min. Potassium within normal limits."},
	{"P1", "discharge_summary", time.Date(2025, 11, 2, 16, 0, 0, 0, time.UTC),
		"Discharged after COPD exacerbation. Continue tiotropium inhaler. Follow up with pulmonology in 4 weeks."},
	{"P2", "progress_note", time.Date(2026, 3, 1, 11, 15, 0, 0, time.UTC),
		"Post-op day 1 after laparoscopic cholecystectomy. Pain controlled with acetaminophen. Ambulating independently."},
	{"P2", "lab_report", time.Date(2026, 3, 1, 6, 45, 0, 0, time.UTC),
		"WBC 9.8, Hgb 12.1, platelets 240. Liver panel unremarkable post-procedure."},
}

func main() {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%s Invalid configuration: %v", red("[FAIL]"), err)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("%s Unable to connect to database: %v", red("[FAIL]"), err)
	}

	crypto, err := encryption.NewProvider(cfg.Encryption.Provider, cfg.Encryption.KeyHex)
	if err != nil {
		log.Fatalf("%s Unable to initialize encryption: %v", red("[FAIL]"), err)
	}

	var embedder embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}

	repo := implementation.NewRecordEmbeddingRepository(db)
	ctx := context.Background()

	var embeddings []*entity.RecordEmbedding
	for _, r := range demoRecords {
		log.Printf("%s Embedding record for patient %s (%s)...", cyan("[SEED]"), r.patientID, r.sourceType)

		vector, err := embedder.Embed(ctx, r.snippet, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Fatalf("%s Embedding failed: %v", red("[FAIL]"), err)
		}

		cipher, err := crypto.Encrypt([]byte(r.snippet))
		if err != nil {
			log.Fatalf("%s Encryption failed: %v", red("[FAIL]"), err)
		}

		embeddings = append(embeddings, &entity.RecordEmbedding{
			Id:             uuid.New(),
			PatientID:      r.patientID,
			SnippetCipher:  cipher,
			EmbeddingValue: vector,
			SourceType:     r.sourceType,
			RecordedAt:     r.recordedAt,
			CreatedAt:      time.Now(),
		})
	}

	if err := repo.CreateBulk(ctx, embeddings); err != nil {
		log.Fatalf("%s Insert failed: %v", red("[FAIL]"), err)
	}

	log.Printf("%s Seeded %d encrypted records.", green("[OK]"), len(embeddings))
}
