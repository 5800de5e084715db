// Package main implements the entry point for the ReelForge API server,
// which turns text documents into narrated videos through a supervised
// generation pipeline.
package main

import (
	"context"
	"log"
)

func main() {
	app, err := buildApplication(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
