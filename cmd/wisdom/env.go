package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/1amageek/Wisdom/internal/agent"
	"github.com/1amageek/Wisdom/internal/applier"
	"github.com/1amageek/Wisdom/internal/auditlog"
	"github.com/1amageek/Wisdom/internal/builder"
	"github.com/1amageek/Wisdom/internal/config"
	"github.com/1amageek/Wisdom/internal/generator"
	"github.com/1amageek/Wisdom/internal/indexer"
)

type runtimeFlags struct {
	repo      string
	provider  string
	model     string
	autoIndex bool
}

// runtimeEnv wires the collaborators the agent loop consumes.
type runtimeEnv struct {
	RepoRoot string
	Config   *config.Config
	Log      *auditlog.Log

	Build    agent.BuildFunc
	Generate agent.GenerateFunc
	Apply    agent.ApplyFunc

	index *indexer.Manager
	store *auditlog.Store
}

func (r *runtimeEnv) Close() {
	if r.index != nil {
		if err := r.index.Close(); err != nil {
			log.Printf("WARNING: failed to close index: %v", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			log.Printf("WARNING: failed to close audit store: %v", err)
		}
	}
}

func prepareRuntimeEnv(ctx context.Context, flags runtimeFlags) (*runtimeEnv, error) {
	repoRoot := flags.repo
	if repoRoot == "" {
		var err error
		repoRoot, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	absRepoRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository path: %w", err)
	}
	if info, err := os.Stat(absRepoRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("repository path is not a valid directory: %s", absRepoRoot)
	}
	log.Printf("Repository root: %s", absRepoRoot)

	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	env := &runtimeEnv{RepoRoot: absRepoRoot, Config: cfg}

	// Persist the audit trail next to the user config so past runs stay
	// inspectable after the process exits.
	env.Log = auditlog.New()
	if store, err := openAuditStore(ctx); err != nil {
		log.Printf("WARNING: audit log persistence disabled: %v", err)
	} else {
		env.store = store
		env.Log = auditlog.NewWithStore(store)
	}

	client, err := generator.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	gen := generator.New(client)

	if flags.autoIndex {
		if mgr, err := indexer.NewManager(absRepoRoot); err != nil {
			log.Printf("WARNING: indexing disabled: %v", err)
		} else {
			if err := mgr.Watch(); err != nil {
				log.Printf("WARNING: index watching disabled: %v", err)
			}
			env.index = mgr
			gen = gen.WithContextProvider(mgr)
		}
	}

	b := builder.New(absRepoRoot)
	ap := applier.New(absRepoRoot)

	env.Build = b.Build
	env.Generate = gen.Generate
	env.Apply = ap.Apply
	return env, nil
}

func loadConfig(flags runtimeFlags) (*config.Config, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, err
	}
	cfg, err := manager.Load()
	if err != nil {
		return nil, err
	}

	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}

	// Environment variables fill whatever the config file leaves blank.
	if cfg.Provider == "" {
		switch {
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			cfg.Provider = config.ProviderAnthropic
		case os.Getenv("OPENAI_API_KEY") != "":
			cfg.Provider = config.ProviderOpenAI
		default:
			return nil, fmt.Errorf("no provider configured: set -provider, %s, or an API key env var", manager.GetConfigPath())
		}
	}
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case config.ProviderAnthropic:
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case config.ProviderOpenAI:
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Model == "" {
		switch cfg.Provider {
		case config.ProviderAnthropic:
			cfg.Model = "claude-sonnet-4-5"
		case config.ProviderOpenAI:
			cfg.Model = "gpt-4o"
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}

	return cfg, nil
}

func openAuditStore(ctx context.Context) (*auditlog.Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(configDir, "wisdom")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return auditlog.NewStore(ctx, filepath.Join(dir, "audit.db"))
}
