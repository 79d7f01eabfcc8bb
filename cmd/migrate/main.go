package main

import (
	"log"
	"os"

	"rag-presupuestos-be/internal/model"
	"rag-presupuestos-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Document{},
		&model.Chunk{},
		&model.ChunkEmbedding{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Search Indexes
	log.Println("Step 3: Creating Search Indexes...")

	postMigrationSQL := []string{
		// ANN index for cosine similarity
		`CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_embedding_value
		 ON chunk_embeddings USING hnsw (embedding_value vector_cosine_ops);`,

		// Spanish full-text index over chunk content
		`CREATE INDEX IF NOT EXISTS idx_chunks_content_fts
		 ON chunks USING gin (to_tsvector('spanish', COALESCE(content, '')));`,

		// Metadata filters join through documents
		`CREATE INDEX IF NOT EXISTS idx_documents_document_type ON documents (document_type);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_category ON documents (category);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_geographic_zone ON documents (geographic_zone);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_price_year ON documents (price_year);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
