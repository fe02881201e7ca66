// Command wisdom runs the iterative build-generate-apply loop against a
// project: build it, send the outcome and the operator's goal to an LLM,
// apply the returned file edits, and repeat until the error count stops
// improving or the operator interrupts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/1amageek/Wisdom/internal/agent"
	"github.com/1amageek/Wisdom/internal/auditlog"
)

func main() {
	// Load .env if present so API keys can live next to the project.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("wisdom: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("wisdom", flag.ExitOnError)
	repoFlag := fs.String("repo", "", "Path to repository root (default: current directory)")
	messageFlag := fs.String("message", "", "Goal for the run, e.g. \"fix the build\" (required)")
	providerFlag := fs.String("provider", "", "LLM provider: anthropic or openai (default: from config)")
	modelFlag := fs.String("model", "", "Model name (default: from config)")
	maxStaleFlag := fs.Int("max-stale", 0, "Halt after this many non-improving iterations (default: 5)")
	continueFlag := fs.Bool("continue-on-success", true, "Keep iterating after a clean build")
	timeoutFlag := fs.Duration("generate-timeout", 0, "Generate phase timeout; negative disables (default: 60s)")
	noIndexFlag := fs.Bool("no-index", false, "Disable repository indexing for prompt context")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *messageFlag == "" {
		fs.Usage()
		return fmt.Errorf("-message is required")
	}

	env, err := prepareRuntimeEnv(ctx, runtimeFlags{
		repo:      *repoFlag,
		provider:  *providerFlag,
		model:     *modelFlag,
		autoIndex: !*noIndexFlag,
	})
	if err != nil {
		return err
	}
	defer env.Close()

	opts := agent.DefaultOptions()
	if *maxStaleFlag > 0 {
		opts.MaxNoImprovement = *maxStaleFlag
	} else if env.Config.MaxNoImprovement > 0 {
		opts.MaxNoImprovement = env.Config.MaxNoImprovement
	}
	opts.ContinueOnSuccess = *continueFlag
	if env.Config.ContinueOnSuccess != nil && !flagProvided(fs, "continue-on-success") {
		opts.ContinueOnSuccess = *env.Config.ContinueOnSuccess
	}
	if *timeoutFlag != 0 {
		opts.GenerateTimeout = *timeoutFlag
	} else if d := env.Config.GenerateTimeoutDuration(); d != 0 {
		opts.GenerateTimeout = d
	}

	a := agent.New(env.Log)
	env.Log.SetSink(printEntry)

	// SIGINT requests a cooperative stop: the current iteration finishes
	// its checkpointed work and the loop exits at the next boundary.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Println("interrupt received, stopping after the current operation")
		a.Stop()
	}()

	a.Start(ctx, *messageFlag, opts, env.Build, env.Generate, env.Apply)

	state := a.Snapshot()
	log.Printf("Run ended after %d iteration(s)", state.Iteration)
	return nil
}

func flagProvided(fs *flag.FlagSet, name string) bool {
	provided := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			provided = true
		}
	})
	return provided
}

// printEntry renders one audit entry to the terminal.
func printEntry(e auditlog.Entry) {
	prefix := map[auditlog.Kind]string{
		auditlog.KindInfo:    "INFO ",
		auditlog.KindWarning: "WARN ",
		auditlog.KindError:   "ERROR",
		auditlog.KindAction:  "  ►  ",
	}[e.Kind]

	fmt.Printf("%s %s %s\n", e.Timestamp.Format(time.TimeOnly), prefix, e.Message)
	if e.Details != "" {
		fmt.Printf("                 %s\n", e.Details)
	}
}
