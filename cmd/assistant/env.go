package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/campusbuddy/campusbuddy/internal/agent"
	"github.com/campusbuddy/campusbuddy/internal/config"
	"github.com/campusbuddy/campusbuddy/internal/knowledge"
	"github.com/campusbuddy/campusbuddy/internal/providers"
	"github.com/campusbuddy/campusbuddy/internal/session"
	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/internal/websearch"
)

// runtimeEnv holds everything the REPL needs, wired together once at startup.
type runtimeEnv struct {
	Orchestrator *agent.Orchestrator
	Knowledge    *knowledge.Service
	Sessions     *session.Store
	Summarizer   *session.Summarizer
	Institution  string
	Model        string

	store   *knowledge.Store
	index   *knowledge.Index
	watcher *knowledge.SeedWatcher
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			log.Printf("failed to stop seed watcher: %v", err)
		}
	}
	if r.index != nil {
		if err := r.index.Close(); err != nil {
			log.Printf("failed to close search index: %v", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			log.Printf("failed to close knowledge store: %v", err)
		}
	}
}

type runtimeOptions struct {
	DBPath     string
	SeedDir    string
	Populate   bool
	WatchSeeds bool
	MaxIter    int
}

func prepareRuntimeEnv(ctx context.Context, opts runtimeOptions) (*runtimeEnv, error) {
	cfgManager, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	userConfig, err := cfgManager.Load()
	if err != nil {
		log.Printf("failed to load user config: %v (using defaults)", err)
		userConfig = &config.Config{Institution: "SJSU"}
	} else if cfgManager.Exists() {
		log.Printf("user config loaded from: %s", cfgManager.GetConfigPath())
	}

	// Flags beat config; config beats defaults.
	dbPath := firstNonEmpty(opts.DBPath, userConfig.DBPath, filepath.Join(cfgManager.Dir(), "knowledge.db"))
	seedDir := firstNonEmpty(opts.SeedDir, userConfig.SeedDir, "data/seed")
	maxIter := opts.MaxIter
	if maxIter <= 0 {
		if v, err := strconv.Atoi(os.Getenv("MAX_ITERATIONS")); err == nil {
			maxIter = v
		}
	}
	if maxIter <= 0 {
		maxIter = userConfig.MaxIterations
	}
	if userConfig.LLMProvider != "" && os.Getenv("LLM_PROVIDER") == "" {
		os.Setenv("LLM_PROVIDER", userConfig.LLMProvider)
	}
	if inst := os.Getenv("INSTITUTION"); inst != "" {
		userConfig.Institution = inst
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := knowledge.NewStore(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge store: %w", err)
	}

	index, err := knowledge.NewIndex(dbPath)
	if err != nil {
		log.Printf("failed to open search index: %v (ranked search disabled)", err)
		index = nil
	}

	svc := knowledge.NewService(store, index, userConfig.Institution)

	if opts.Populate {
		log.Printf("populating knowledge store from %s", seedDir)
		if err := svc.Populate(ctx, seedDir); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to populate knowledge store: %w", err)
		}
	}

	var watcher *knowledge.SeedWatcher
	if opts.WatchSeeds || userConfig.WatchSeeds {
		watcher, err = knowledge.NewSeedWatcher(seedDir, svc)
		if err != nil {
			log.Printf("failed to watch seed directory: %v (live reload disabled)", err)
		} else if err := watcher.Start(ctx); err != nil {
			log.Printf("failed to start seed watcher: %v (live reload disabled)", err)
			watcher = nil
		}
	}

	var web tools.WebSearcher
	webClient, err := websearch.NewClient(websearch.Config{
		APIKey:      os.Getenv("TAVILY_API_KEY"),
		Institution: userConfig.Institution,
		AltNames:    []string{"San Jose State"},
	})
	if err != nil {
		log.Printf("web search unavailable: %v", err)
	} else {
		web = webClient
	}

	llm, model, err := providers.NewLLMClientFromEnv()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	log.Printf("using model: %s", model)

	registry := tools.NewRegistry(userConfig.Institution, svc, web)

	agentCfg := agent.DefaultConfig(userConfig.Institution)
	agentCfg.Model = model
	agentCfg.CiteDomain = "sjsu.edu"
	agentCfg.Hooks = agent.Hooks{agent.LoggerHook{L: log.Default()}}
	if maxIter > 0 {
		agentCfg.MaxIterations = maxIter
	}

	orch, err := agent.NewOrchestrator(llm, registry, agentCfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return &runtimeEnv{
		Orchestrator: orch,
		Knowledge:    svc,
		Sessions:     session.NewStore(cfgManager.Dir()),
		Summarizer:   session.NewSummarizer(llm),
		Institution:  userConfig.Institution,
		Model:        model,
		store:        store,
		index:        index,
		watcher:      watcher,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
