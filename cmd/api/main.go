package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/akchatar/socialconnect-ai/internal/application"
	appanalysis "github.com/akchatar/socialconnect-ai/internal/application/analysis"
	appcreds "github.com/akchatar/socialconnect-ai/internal/application/credentials"
	"github.com/akchatar/socialconnect-ai/internal/config"
	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
	domanalysis "github.com/akchatar/socialconnect-ai/internal/domain/analysis"
	domcred "github.com/akchatar/socialconnect-ai/internal/domain/credential"
	"github.com/akchatar/socialconnect-ai/internal/infra/ai/groq"
	"github.com/akchatar/socialconnect-ai/internal/infra/ai/ollama"
	memoryp "github.com/akchatar/socialconnect-ai/internal/infra/db/memory"
	mysqlp "github.com/akchatar/socialconnect-ai/internal/infra/db/mysql"
	postgresp "github.com/akchatar/socialconnect-ai/internal/infra/db/postgres"
	"github.com/akchatar/socialconnect-ai/internal/infra/httpserver"
	minioStore "github.com/akchatar/socialconnect-ai/internal/infra/storage"
	"github.com/akchatar/socialconnect-ai/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()
	clock := application.SystemClock{}

	// connect database. A dead database does not block startup: the
	// credential service runs on the seeded in-memory pool instead.
	db, err := connectDB(ctx, cfg)
	if err != nil {
		log.Printf("database unavailable, running on in-memory credential pool: %v", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	fallback := memoryp.NewCredentialRepository(seedCredentials(cfg, clock.Now()))

	var durable domcred.Repository = fallback
	var analysisRepo domanalysis.Repository
	if db != nil {
		switch cfg.Database.Driver {
		case "postgres":
			durable = postgresp.NewCredentialRepository(db)
			analysisRepo = postgresp.NewAnalysisRepository(db)
		default:
			durable = mysqlp.NewCredentialRepository(db)
			analysisRepo = mysqlp.NewAnalysisRepository(db)
		}
	}

	// init minio (optional archive of merged results)
	var artifacts domanalysis.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	// init credential pool
	credsSvc := &appcreds.Service{
		Durable:  durable,
		Fallback: fallback,
		Clock:    clock,
		Cooldown: cfg.Cooldown(),
	}
	rotator := &appcreds.Rotator{Store: credsSvc}

	// init providers
	ollamaClient := ollama.NewClient(cfg.AI.Ollama.Endpoint, cfg.AI.Ollama.Model, cfg.OllamaTimeout())
	groqClient := groq.NewClient(cfg.AI.Groq.BaseURL, cfg.AI.Groq.Model)

	var dispatcher *appanalysis.Dispatcher
	if cfg.AI.Enabled {
		dispatcher = &appanalysis.Dispatcher{
			Default:     domai.Provider(cfg.AI.Provider),
			Cloud:       groqClient,
			Local:       ollamaClient,
			Pool:        rotator,
			Store:       credsSvc,
			UsePool:     cfg.AI.Groq.UsePool,
			SingleKey:   cfg.AI.Groq.APIKey,
			MaxAttempts: cfg.AI.RetryAttempts,
			Temperature: cfg.AI.Temperature,
		}
	}

	// init analysis service
	analysisSvc := &appanalysis.Service{
		Dispatcher:          dispatcher,
		Repo:                analysisRepo,
		Artifacts:           artifacts,
		Clock:               clock,
		Categories:          vocabularyCategories(cfg),
		Actions:             vocabularyActions(cfg),
		AnalysisEnabled:     cfg.AI.Analysis.Enabled,
		AnalysisTemperature: cfg.AI.Analysis.Temperature,
		CustomPrompt:        cfg.AI.Analysis.CustomPrompt,
	}

	// init router
	health := map[string]middleware.HealthChecker{}
	if db != nil {
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}
	handler := httpserver.NewRouter(credsSvc, analysisSvc, ollamaClient, httpserver.Options{
		AuthKeys:       cfg.Auth.Keys,
		HealthCheckers: health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s provider=%s pool=%t", addr, cfg.AI.Provider, cfg.AI.Groq.UsePool)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		return db, postgresp.EnsureSchema(ctx, db)
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		return db, mysqlp.EnsureSchema(ctx, db)
	}
}

// seedCredentials builds the offline pool from the configured fallback keys.
func seedCredentials(cfg *config.Config, now time.Time) []*domcred.Credential {
	seed := make([]*domcred.Credential, 0, len(cfg.FallbackKeys))
	for _, k := range cfg.FallbackKeys {
		if k.Secret == "" {
			continue
		}
		label := k.Label
		if label == "" {
			label = "Sans nom"
		}
		seed = append(seed, &domcred.Credential{
			ID:        domcred.ID(uuid.New().String()),
			Secret:    k.Secret,
			Label:     label,
			IsActive:  true,
			CreatedAt: now,
		})
	}
	return seed
}

func vocabularyCategories(cfg *config.Config) domanalysis.Vocabulary {
	out := make(domanalysis.Vocabulary, 0, len(cfg.Vocabulary.Categories))
	for _, c := range cfg.Vocabulary.Categories {
		out = append(out, domanalysis.VocabularyEntry{Label: c.Label, Keywords: c.Keywords})
	}
	return out
}

func vocabularyActions(cfg *config.Config) domanalysis.Vocabulary {
	out := make(domanalysis.Vocabulary, 0, len(cfg.Vocabulary.Actions))
	for _, a := range cfg.Vocabulary.Actions {
		out = append(out, domanalysis.VocabularyEntry{Label: a.Label})
	}
	return out
}
