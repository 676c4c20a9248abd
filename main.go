package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cartpilot/server/internal/agent/model"
	"github.com/cartpilot/server/internal/agent/orchestrator"
	"github.com/cartpilot/server/internal/agent/reason"
	"github.com/cartpilot/server/internal/agent/repo"
	"github.com/cartpilot/server/internal/agent/retryx"
	"github.com/cartpilot/server/internal/agent/vendors"
	"github.com/cartpilot/server/internal/core"
	logx "github.com/cartpilot/server/pkg/logger"
	pkgredis "github.com/cartpilot/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the shopping agent,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Fetch      model.FetchConfig
	Selector   model.SelectorConfig
	Classifier model.ClassifierModelConfig
	Reasoner   model.ReasonerModelConfig
	Session    model.SessionConfig
}

func main() {
	fmt.Println("Grocery shopping agent demo...")
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Session.AuditTTL)
	if err != nil {
		log.Fatalf("Invalid SESSION_AUDIT_TTL '%s': %v", envCfg.Session.AuditTTL, err)
	}

	gateway, err := vendors.NewGateway(vendors.DefaultSources(), retryx.FromFetchConfig(envCfg.Fetch), envCfg.Fetch.OfferCacheSize)
	if err != nil {
		log.Fatalf("Failed to build offer gateway: %v", err)
	}

	svc, err := reason.NewService(ctx, reason.Config{
		APIKey:     envCfg.APIKey,
		BaseURL:    envCfg.BaseURL,
		Classifier: envCfg.Classifier,
		Reasoner:   envCfg.Reasoner,
	})
	if err != nil {
		log.Fatalf("Failed to build reasoning service: %v", err)
	}

	auditLog := repo.NewRedisAuditLog(rdb, ttl)

	agent := orchestrator.New(
		gateway,
		svc,
		auditLog,
		envCfg.Selector.DominanceThreshold,
		nil,
	)

	state := model.NewSessionState(uuid.NewString())

	turns := []struct {
		description string
		input       string
	}{
		{
			description: "Initial grocery list",
			input:       "I need 5kg basmati rice, 0.5kg groundnut and 2l fabric conditioner",
		},
		{
			description: "Targeted modification",
			input:       "I want organic basmati rice instead",
		},
		{
			description: "Add a new item",
			input:       "also add 1kg sugar",
		},
		{
			description: "Checkout",
			input:       "confirm",
		},
	}

	for i, turn := range turns {
		fmt.Printf("\nTurn %d: %s\n", i+1, turn.description)
		fmt.Printf("User: %q\n", turn.input)

		before := len(state.Messages)
		if err := agent.HandleUserMessage(ctx, state, turn.input); err != nil {
			log.Fatalf("Failed to handle turn %d: %v", i+1, err)
		}
		for _, msg := range state.Messages[before:] {
			fmt.Printf("Agent: %s\n", msg)
		}
		fmt.Println("------------------------------------------------")
	}

	// Replay the audit trail for the finished session, then drop it.
	trail, err := auditLog.LoadTrail(ctx, state.SessionID)
	if err != nil {
		log.Printf("Warning: could not load audit trail: %v", err)
	} else {
		fmt.Printf("\nAudit trail (%d entries):\n", len(trail))
		for _, entry := range trail {
			fmt.Printf("  %s  %s\n", entry.CreatedAt.Format(time.RFC3339), entry.Type)
		}
	}
	if err := auditLog.Clear(ctx, state.SessionID); err != nil {
		log.Printf("Warning: could not clear audit trail: %v", err)
	}

	fmt.Printf("\nSession %s finished, checked out: %v\n", state.SessionID, state.CheckedOut)
}
