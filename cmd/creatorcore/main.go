// Copyright 2025 CreatorCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/creatorcore/creatorcore/pkg/agents"
	"github.com/creatorcore/creatorcore/pkg/breaker"
	"github.com/creatorcore/creatorcore/pkg/checkpoint"
	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/deep"
	"github.com/creatorcore/creatorcore/pkg/embedder"
	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/logger"
	"github.com/creatorcore/creatorcore/pkg/mcp"
	"github.com/creatorcore/creatorcore/pkg/observability"
	"github.com/creatorcore/creatorcore/pkg/orchestrator"
	"github.com/creatorcore/creatorcore/pkg/rag"
	"github.com/creatorcore/creatorcore/pkg/retrieval"
	"github.com/creatorcore/creatorcore/pkg/server"
	"github.com/creatorcore/creatorcore/pkg/vector"
)

var version = "dev"

type cli struct {
	Config    string `short:"c" default:"creatorcore.yaml" help:"Path to the configuration file."`
	LogLevel  string `default:"info" enum:"debug,info,warn,error" help:"Log level."`
	LogFormat string `default:"simple" enum:"simple,verbose" help:"Log output format."`

	Serve    serveCmd    `cmd:"" default:"1" help:"Start the orchestrator HTTP server."`
	Validate validateCmd `cmd:"" help:"Validate the configuration file and exit."`
	Version  versionCmd  `cmd:"" help:"Print the version and exit."`
}

type serveCmd struct{}
type validateCmd struct{}
type versionCmd struct{}

func main() {
	var c cli
	ktx := kong.Parse(&c,
		kong.Name("creatorcore"),
		kong.Description("Creator onboarding and mission recommendation orchestrator."),
		kong.UsageOnError(),
	)

	logger.Init(parseLevel(c.LogLevel), os.Stderr, c.LogFormat)

	if err := ktx.Run(&c); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (v *versionCmd) Run(c *cli) error {
	fmt.Println("creatorcore " + version)
	return nil
}

func (v *validateCmd) Run(c *cli) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	fmt.Println("configuration OK")
	return nil
}

func (s *serveCmd) Run(c *cli) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	ctx := context.Background()

	metrics, err := observability.InitMetrics(ctx, observability.MetricsConfig{
		Enabled: cfg.Metrics.Enabled,
		Port:    cfg.Metrics.Port,
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	stats := observability.NewStatsRecorder()

	registry, err := llm.NewRegistryFromConfig(cfg.LLMs, cfg.Slots)
	if err != nil {
		return fmt.Errorf("building model registry: %w", err)
	}
	defer registry.Close()
	engine := llm.NewEngine(registry, metrics, stats)

	pipeline, searcher, err := buildRAG(cfg, engine)
	if err != nil {
		return err
	}

	breakers := breaker.NewManager()
	tools := buildTools(cfg, breakers)

	store, err := checkpoint.New(&cfg.Checkpoint)
	if err != nil {
		return fmt.Errorf("opening checkpoint store: %w", err)
	}
	defer store.Close()

	creatorAgent := agents.NewCreatorAgent(engine, tools, pipeline)
	deepAgent := deep.New(engine, cfg.Orchestrator.DeepAgents)

	orch := orchestrator.New(&cfg.Orchestrator, &cfg.RAG, orchestrator.Deps{
		Engine:    engine,
		Pipeline:  pipeline,
		Tools:     tools,
		DeepAgent: deepAgent,
		Store:     store,
		Metrics:   metrics,
		Search:    agents.NewSearchAgent(searcher, cfg.RAG.MaxResults),
		Recommend: agents.NewRecommendationAgent(engine),
		Collect:   agents.NewDataCollectionAgent(tools),
		Integrate: agents.NewIntegrationAgent(),
		Analytics: agents.NewAnalyticsAgent(nil),
	})

	srv := server.New(cfg.Server, orch, pipeline, creatorAgent, breakers, stats)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadConfig(path string) (*config.Config, error) {
	// Best effort; the config file can reference ${VARS} from .env.
	_ = godotenv.Load()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("Config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildRAG assembles the retrieval pipeline. Without an embedder or vector
// section the pipeline runs on the in-memory backend.
func buildRAG(cfg *config.Config, engine *llm.Engine) (*rag.Pipeline, *retrieval.HybridSearcher, error) {
	var embed embedder.Embedder
	for name := range cfg.Embedders {
		ecfg := cfg.Embedders[name]
		built, err := embedder.New(&ecfg)
		if err != nil {
			return nil, nil, fmt.Errorf("building embedder %q: %w", name, err)
		}
		embed = embedder.NewCachedEmbedder(built, 0)
		break
	}
	if embed == nil {
		slog.Warn("No embedder configured, retrieval quality will be keyword-only")
	}

	provider, err := vector.New(&cfg.Vector)
	if err != nil {
		slog.Warn("Vector backend unavailable, falling back to memory", "error", err)
		memCfg := config.VectorConfig{Backend: "memory"}
		provider, err = vector.New(&memCfg)
		if err != nil {
			return nil, nil, err
		}
	}

	searcher := retrieval.NewHybridSearcher(provider, embed, retrieval.NewKeywordIndex(), cfg.Vector.IndexName)
	if cfg.RAG.VectorWeight > 0 {
		searcher.VectorWeight = cfg.RAG.VectorWeight
	}
	if cfg.RAG.KeywordWeight > 0 {
		searcher.KeywordWeight = cfg.RAG.KeywordWeight
	}

	var reranker retrieval.Reranker
	if cfg.RAG.RerankEnabled {
		reranker = retrieval.NewLLMReranker(engine, cfg.RAG.ScoreThreshold)
	}

	return rag.NewPipeline(&cfg.RAG, engine, searcher, reranker), searcher, nil
}

// buildTools wires the MCP tool families that have servers configured.
func buildTools(cfg *config.Config, breakers *breaker.Manager) *mcp.Service {
	executor := mcp.NewExecutor(breakers, cfg.MCP.Policies)

	var web *mcp.WebTool
	var youtube *mcp.YouTubeTool
	var supadata *mcp.SupadataTool

	if cfg.MCP.Web.Command != "" || cfg.MCP.Web.URL != "" {
		web = mcp.NewWebTool(mcp.NewClient("web", cfg.MCP.Web))
	}
	if cfg.MCP.YouTube.Command != "" || cfg.MCP.YouTube.URL != "" {
		youtube = mcp.NewYouTubeTool(mcp.NewClient("youtube", cfg.MCP.YouTube))
	}
	if cfg.MCP.Supadata.Command != "" || cfg.MCP.Supadata.URL != "" {
		supadata = mcp.NewSupadataTool(mcp.NewClient("supadata", cfg.MCP.Supadata))
	}

	return mcp.NewService(executor, web, youtube, supadata)
}
