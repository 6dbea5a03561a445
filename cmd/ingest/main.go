// Ingest is a companion tool to the chat service: it chunks a text file into
// overlapping character windows, embeds each chunk and upserts the points
// into the same Qdrant collection the orchestrator queries.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"rag-orchestrator-be/internal/config"
	"rag-orchestrator-be/pkg/embedding"
	"rag-orchestrator-be/pkg/utils"
	"rag-orchestrator-be/pkg/vectorindex/qdrant"
)

func main() {
	filePath := flag.String("file", "", "path to the text file to ingest")
	chunkSize := flag.Int("chunk-size", 800, "chunk size in characters")
	overlap := flag.Int("overlap", 150, "overlap between chunks in characters")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("[FATAL] -file is required")
	}

	cfg := config.Load()
	if cfg.Retrieval.QdrantURL == "" {
		log.Fatal("[FATAL] QDRANT_URL is required for ingestion")
	}

	content, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to read %s: %v", *filePath, err)
	}

	var embedder embedding.Provider
	if cfg.Embedding.Provider == "openai" {
		embedder = embedding.NewOpenAIProvider(cfg.Embedding.OpenAIBaseURL, cfg.Embedding.OpenAIAPIKey, cfg.Embedding.Model)
	} else {
		embedder = embedding.NewOllamaProvider(cfg.Embedding.OllamaBaseURL, cfg.Embedding.Model)
	}

	indexClient := qdrant.NewClient(qdrant.Config{
		URL:        cfg.Retrieval.QdrantURL,
		Collection: cfg.Retrieval.Collection,
	})

	ctx := context.Background()
	chunks := utils.SplitText(string(content), *chunkSize, *overlap)
	source := filepath.Base(*filePath)
	log.Printf("Ingesting %s: %d chunk(s) into collection %s", source, len(chunks), cfg.Retrieval.Collection)

	points := make([]qdrant.Point, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := embedder.Generate(ctx, chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Fatalf("[FATAL] Embedding chunk %d failed: %v", i, err)
		}

		if i == 0 {
			if err := indexClient.EnsureCollection(ctx, len(vector)); err != nil {
				log.Fatalf("[FATAL] Ensure collection failed: %v", err)
			}
		}

		points = append(points, qdrant.Point{
			ID:     uuid.NewString(),
			Vector: vector,
			Payload: map[string]interface{}{
				"text": chunk,
				"metadata": map[string]interface{}{
					"source": source,
					"chunk":  i,
				},
			},
		})
	}

	if err := indexClient.Upsert(ctx, points); err != nil {
		log.Fatalf("[FATAL] Upsert failed: %v", err)
	}
	log.Printf("Done: %d point(s) upserted", len(points))
}
