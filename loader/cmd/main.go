package main

import (
	"context"
	"log"

	"intellidocs/app/server"
	"intellidocs/loader/service"
	"intellidocs/model"
	"intellidocs/store"

	"github.com/joho/godotenv"
)

func init() {
	loadEnvVariables()
}

func main() {
	ctx := context.Background()
	cfg := server.LoadConfig()

	embedder := model.NewHashedEmbedder(cfg.EmbeddingDim)

	var vstore store.VectorStorer
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, embedder)
		if err != nil {
			log.Fatal("error to connect to Postgres database", err)
			return
		}
		if err := pg.Init(ctx); err != nil {
			log.Fatal("error to create tables", err)
			return
		}
		defer pg.Close()
		vstore = pg
	} else {
		log.Println("DATABASE_URL not set, using in-memory vector store")
		vstore = store.NewMemoryStore(embedder)
	}

	docs := store.NewDocumentStore()
	service.New(cfg, docs, vstore, embedder).Run()
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
}
