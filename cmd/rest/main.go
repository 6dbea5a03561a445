package main

import (
	"context"
	"log"

	"rag-orchestrator-be/internal/bootstrap"
	"rag-orchestrator-be/internal/config"
	"rag-orchestrator-be/internal/server"
	"rag-orchestrator-be/internal/tracer"
)

func main() {
	// 1. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 2. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Logger.Sync()

	// 4. Initialize and run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
