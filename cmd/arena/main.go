// Command arena runs a pairwise LLM evaluation tournament. It reads one
// .jsonl answer set per participant from an input directory, has a judge
// model compare every pair of participants question by question (each
// question judged twice with presentation order swapped), aggregates the
// verdicts into Elo ratings, and writes pairwise, history, and leaderboard
// reports.
//
// The judge provider API key is read from the environment:
// OPENAI_API_KEY, ANTHROPIC_API_KEY, or GEMINI_API_KEY depending on
// --provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-arena/infrastructure/judge"
	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/infrastructure/middleware"
	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/domain"
)

func main() {
	var (
		inputDir       = flag.String("input-dir", "answers", "Directory containing one .jsonl answer set per participant")
		reportDir      = flag.String("report-dir", "reports", "Directory for report artifacts (recreated each run)")
		configPath     = flag.String("config", "", "Optional YAML run configuration file")
		provider       = flag.String("provider", "", "Judge LLM provider: openai, anthropic, or google")
		model          = flag.String("model", "", "Judge model name (empty uses the provider default)")
		maxConcurrency = flag.Int("max-concurrency", 0, "Maximum simultaneous judge calls per pair")
		align          = flag.String("align", "", "Answer alignment mode: question_id or index")
		verbose        = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = clog.WithLogger(ctx, log)

	config := application.DefaultRunConfig()
	if *configPath != "" {
		loaded, err := application.LoadRunConfig(*configPath)
		if err != nil {
			log.Errorf("failed to load configuration: %v", err)
			os.Exit(1)
		}
		config = loaded
	}

	// Flags override the file.
	if *provider != "" {
		config.Provider = *provider
	}
	if *model != "" {
		config.Model = *model
	}
	if *maxConcurrency > 0 {
		config.MaxConcurrency = *maxConcurrency
	}
	if *align != "" {
		config.Align = application.AlignMode(*align)
	}
	if err := config.Validate(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	apiKey, err := apiKeyFor(config.Provider)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	metrics := middleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	config.Metrics = metrics

	client, err := llm.NewClient(config.Provider, llm.ClientConfig{
		APIKey:  apiKey,
		Model:   config.Model,
		Timeout: 2 * time.Minute,
		Middleware: []llm.Middleware{
			llm.RetryMiddleware(3, 500*time.Millisecond, 10*time.Second),
			llm.RateLimitMiddleware(rate.Limit(5), 10),
			llm.MetricsMiddleware(metrics),
			llm.TracingMiddleware("arena"),
		},
	})
	if err != nil {
		log.Errorf("failed to create LLM client: %v", err)
		os.Exit(1)
	}

	judgeConfig := judge.DefaultConfig()
	if config.Criteria != "" {
		judgeConfig.Criteria = config.Criteria
	}
	if config.Temperature > 0 {
		judgeConfig.Temperature = config.Temperature
	}
	if config.MaxTokens > 0 {
		judgeConfig.MaxTokens = config.MaxTokens
	}

	pairwiseJudge, err := judge.NewPairwiseJudge(client, judgeConfig)
	if err != nil {
		log.Errorf("failed to create judge: %v", err)
		os.Exit(1)
	}

	elo := domain.NewEloSystem(config.Elo)
	runner, err := application.NewRunner(pairwiseJudge, elo, config)
	if err != nil {
		log.Errorf("failed to create runner: %v", err)
		os.Exit(1)
	}

	log.Infof("starting evaluation: provider=%s model=%s input=%s", config.Provider, client.GetModel(), *inputDir)

	standings, err := runner.Run(ctx, *inputDir, *reportDir)
	if err != nil {
		log.Errorf("evaluation failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("Leaderboard:")
	for _, s := range standings {
		fmt.Printf("%3d. %-30s %8.1f\n", s.Rank, s.Model, s.Rating)
	}
}

// apiKeyFor resolves the provider's API key from the conventional
// environment variable.
func apiKeyFor(provider string) (string, error) {
	envVar := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"google":    "GEMINI_API_KEY",
	}[provider]
	if envVar == "" {
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s is not set; the %s provider requires it", envVar, provider)
	}
	return key, nil
}
