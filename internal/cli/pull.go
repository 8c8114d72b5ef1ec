package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tonyg-mp/pubchem/internal/cache"
	"github.com/tonyg-mp/pubchem/internal/extract"
	"github.com/tonyg-mp/pubchem/internal/metrics"
	"github.com/tonyg-mp/pubchem/internal/model"
	"github.com/tonyg-mp/pubchem/internal/pipeline"
	"github.com/tonyg-mp/pubchem/internal/table"
	"github.com/tonyg-mp/pubchem/internal/util"
	"github.com/tonyg-mp/pubchem/internal/worker"
)

var (
	pullCIDList string
	pullOutDir  string
	pullResume  bool
)

// pullCmd represents the pull command
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch headings and properties for a list of CIDs",
	Long: `Fetch the PUG-View headings and PUG REST core properties of every CID in
a list and store the extracted records under --outdir, one directory per
category.

Completed CIDs are appended to <outdir>/processed_cids.txt after their
records are written. Re-run with --resume to skip them. Every response,
including failures, is cached under --cache-dir and served from there on
later runs.

Example:
  pubchem pull --cid-list cids.txt --outdir out/ --resume
  pubchem pull --cid-list cids.txt --outdir out/ --extra-headings --sleep 250ms`,
	RunE: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)

	defaults := model.DefaultConfig()
	f := pullCmd.Flags()
	f.StringVar(&pullCIDList, "cid-list", "", "text file with one CID per line (required)")
	f.StringVar(&pullOutDir, "outdir", "", "output directory for table fragments (required)")
	f.BoolVar(&pullResume, "resume", false, "skip CIDs already listed in the checkpoint file")

	f.Int("max-cids", 0, "only pull the first N CIDs of the list (0 = all)")
	f.Int("flush-every", defaults.Pull.FlushEvery, "write fragments after this many CIDs")
	f.Duration("sleep", defaults.Pull.Sleep, "pause after each network request")
	f.Int("properties-batch-size", defaults.Pull.PropertiesBatchSize, "CIDs per property request")
	f.String("cache-dir", defaults.Cache.Dir, "response cache directory")
	f.Bool("no-cache", false, "disable the response cache")
	f.Bool("extra-headings", false, "also fetch ClinicalTrials.gov and IUPHAR headings")
	f.Bool("respect-robots", false, "raise --sleep to the robots.txt crawl-delay")
	f.Float64("rps", 0, "maximum requests per second (0 = unlimited)")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	f.String("base-url", defaults.HTTP.BaseURL, "PubChem base URL")
	f.Duration("timeout", defaults.HTTP.Timeout, "per-request timeout")
	f.String("ua", defaults.HTTP.UserAgent, "User-Agent header")
	f.String("http-proxy", "", "proxy for http:// requests")
	f.String("https-proxy", "", "proxy for https:// requests")

	_ = pullCmd.MarkFlagRequired("cid-list")
	_ = pullCmd.MarkFlagRequired("outdir")

	bindFlags(pullCmd, map[string]string{
		"pull.max_cids":              "max-cids",
		"pull.flush_every":           "flush-every",
		"pull.sleep":                 "sleep",
		"pull.properties_batch_size": "properties-batch-size",
		"pull.extra_headings":        "extra-headings",
		"pull.respect_robots":        "respect-robots",
		"pull.requests_per_second":   "rps",
		"cache.dir":                  "cache-dir",
		"metrics.addr":               "metrics-addr",
		"http.base_url":              "base-url",
		"http.timeout":               "timeout",
		"http.user_agent":            "ua",
		"http.http_proxy":            "http-proxy",
		"http.https_proxy":           "https-proxy",
	})
}

// bindFlags binds each config key to the named flag of cmd
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

func runPull(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	logger := newLogger(cfg)

	ids, err := worker.ReadIDsFromFile(pullCIDList, cfg.Pull.MaxCIDs)
	if err != nil {
		return fmt.Errorf("failed to read CID list: %w", err)
	}
	if err := os.MkdirAll(pullOutDir, 0755); err != nil {
		return fmt.Errorf("create outdir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewStore(nil)
	if cfg.Cache.Enabled {
		if err := os.MkdirAll(cfg.Cache.Dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
		store = cache.NewStore(cache.NewLayeredCache(cfg.Cache.Dir))
	}

	limiter := worker.NewLimiter(cfg.Pull.RequestsPerSecond, 1, cfg.Pull.Sleep)
	if cfg.Pull.RespectRobots {
		policy := util.NewRobotsPolicy(cfg.HTTP.UserAgent, cfg.HTTP.Timeout,
			util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, ""))
		sample := pipeline.HeadingURL(cfg.HTTP.BaseURL, 1, model.SourceSynonyms)
		allowed, delay, err := policy.Rules(ctx, sample)
		if err != nil {
			return fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			logger.Warn("robots.txt disallows the heading endpoint for this user agent", "user_agent", cfg.HTTP.UserAgent)
		}
		limiter.RaiseDelay(delay)
	}

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		m.Serve(ctx, cfg.Metrics.Addr, logger)
	}

	client := pipeline.NewClient(cfg.HTTP)
	fetcher := pipeline.NewFetcher(client, cfg.HTTP.BaseURL, cfg.HTTP.Timeout, store, limiter, m, logger)
	props := pipeline.NewPropertyLookup(client, cfg.HTTP.BaseURL, cfg.HTTP.BatchTimeout, limiter, m, logger)
	checkpoint := pipeline.NewCheckpoint(filepath.Join(pullOutDir, pipeline.CheckpointFile))

	loop := pipeline.NewLoop(fetcher, props, extract.NewRegistry(), table.NewStore(pullOutDir), checkpoint, m, logger, pipeline.Options{
		FlushEvery: cfg.Pull.FlushEvery,
		BatchSize:  cfg.Pull.PropertiesBatchSize,
		Sources:    model.Sources(cfg.Pull.ExtraHeadings),
		Resume:     pullResume,
	})

	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  PubChem pull\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "CID list:     %s (%d CIDs)\n", pullCIDList, len(ids))
	fmt.Fprintf(os.Stderr, "Output:       %s\n", pullOutDir)
	if cfg.Cache.Enabled {
		fmt.Fprintf(os.Stderr, "Cache:        %s\n", cfg.Cache.Dir)
	} else {
		fmt.Fprintf(os.Stderr, "Cache:        disabled\n")
	}
	fmt.Fprintf(os.Stderr, "Headings:     %d\n", len(model.Sources(cfg.Pull.ExtraHeadings)))
	fmt.Fprintf(os.Stderr, "Flush every:  %d CIDs\n", cfg.Pull.FlushEvery)
	fmt.Fprintf(os.Stderr, "Delay:        %s\n", limiter.Delay())
	fmt.Fprintf(os.Stderr, "Resume:       %v\n", pullResume)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n\n")

	stats, runErr := loop.Run(ctx, ids)

	fmt.Fprintf(os.Stderr, "\n═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Pull Summary\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "Requested:    %d\n", stats.Requested)
	fmt.Fprintf(os.Stderr, "Skipped:      %d (already checkpointed)\n", stats.Skipped)
	fmt.Fprintf(os.Stderr, "Processed:    %d\n", stats.Processed)
	fmt.Fprintf(os.Stderr, "Checkpointed: %d\n", stats.Checkpointed)
	fmt.Fprintf(os.Stderr, "Fragments:    %d (%d rows)\n", stats.Fragments, stats.Rows)
	fmt.Fprintf(os.Stderr, "Elapsed:      %s\n", stats.Elapsed.Round(100*time.Millisecond))
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintf(os.Stderr, "\n⚠️  Interrupted. Re-run with --resume to continue.\n")
			return nil
		}
		return fmt.Errorf("pull failed: %w", runErr)
	}
	return nil
}
