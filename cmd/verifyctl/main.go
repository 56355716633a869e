// Command verifyctl runs a single verifier batch or a single export by hand,
// against the same Postgres store and collaborators the pipeline service
// uses, without booting the HTTP API or any background loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/5n10/domain-lead-pipeline/internal/clients/chainsclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/httpprobe"
	"github.com/5n10/domain-lead-pipeline/internal/clients/llmclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/placesclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/searchclient"
	"github.com/5n10/domain-lead-pipeline/internal/config"
	"github.com/5n10/domain-lead-pipeline/internal/export"
	"github.com/5n10/domain-lead-pipeline/internal/features"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/scoring"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
	"github.com/5n10/domain-lead-pipeline/internal/verify/htmlsearch"
	"github.com/5n10/domain-lead-pipeline/internal/verify/llmsearch"
	"github.com/5n10/domain-lead-pipeline/internal/verify/metasearch"
	"github.com/5n10/domain-lead-pipeline/internal/verify/nameguess"
	"github.com/5n10/domain-lead-pipeline/internal/verify/placesapi"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("no command specified")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging)

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Database.DSN, store.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetimeDuration(),
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer st.Close()

	switch args[0] {
	case "verify":
		return runVerify(ctx, cfg, st, logger, args[1:])
	case "export":
		return runExport(ctx, cfg, st, logger, args[1:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Println(`verifyctl: run one verifier batch or one export, then exit.

Usage:
  verifyctl verify <source> [-min-score N] [-limit N]
  verifyctl export <platform> [-min-score N] [-limit N]

Sources: domain_guess, searxng, llm, ddg, google_search, google_places, foursquare`)
}

func runVerify(ctx context.Context, cfg *config.Config, st *store.Store, logger *logging.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("verify requires a source name")
	}
	source := args[0]
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	minScore := fs.Int("min-score", 0, "minimum business score to consider")
	limit := fs.Int("limit", 25, "maximum businesses to process")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	v, err := buildVerifier(cfg, source)
	if err != nil {
		return err
	}

	result, err := verify.RunBatch(ctx, st, v, *minScore, *limit, logger)
	if err != nil {
		return fmt.Errorf("run %s batch: %w", source, err)
	}
	fmt.Printf("%s: processed %d businesses, %d touched\n", source, result.RanCount, len(result.Processed))

	if len(result.Processed) > 0 {
		featureLoader := features.New(st)
		chainsCache := chainsclient.NewCache(chainsclient.New(cfg.Chains.SPARQLEndpoint))
		runner := scoring.NewRunner(st, featureLoader, chainsCache, logger)
		rescored, err := runner.RunFor(ctx, result.Processed)
		if err != nil {
			return fmt.Errorf("rescore after %s: %w", source, err)
		}
		fmt.Printf("%s: rescored %d businesses\n", source, rescored)
	}
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, st *store.Store, logger *logging.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("export requires a platform name")
	}
	platform := args[0]
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	minScore := fs.Int("min-score", 0, "minimum business score to export")
	limit := fs.Int("limit", 100, "maximum businesses to export")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	featureLoader := features.New(st)
	exporter := export.New(st, featureLoader, logger)
	result, err := exporter.Run(ctx, export.Request{
		Platform:  platform,
		MinScore:  *minScore,
		Limit:     *limit,
		OutputDir: cfg.Export.OutputDir,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", platform, err)
	}
	fmt.Printf("%s: wrote %d businesses to %s\n", platform, result.WrittenCount, result.Path)
	return nil
}

// buildVerifier constructs exactly the one verifier named by source, so a
// single run never pays for clients the chosen source doesn't use.
func buildVerifier(cfg *config.Config, source string) (verify.Verifier, error) {
	switch source {
	case "domain_guess":
		probeClient := httpprobe.New(httpprobe.Config{
			ConnectTimeout: cfg.HTTPProbe.ConnectTimeout,
			TotalTimeout:   cfg.HTTPProbe.TotalTimeout,
			MaxBodyBytes:   cfg.HTTPProbe.MaxBodyBytes,
			TCPPorts:       cfg.HTTPProbe.TCPPorts,
		})
		return nameguess.New(probeClient), nil
	case "searxng":
		return metasearch.New(searchclient.New(cfg.MetaSearch.BaseURL, cfg.MetaSearch.Timeout)), nil
	case "llm":
		searchClient := searchclient.New(cfg.MetaSearch.BaseURL, cfg.MetaSearch.Timeout)
		llmClient := llmclient.New(llmProviders(cfg.LLM), cfg.LLM.Timeout)
		return llmsearch.New(searchClient, llmClient), nil
	case "ddg":
		return htmlsearch.New(htmlsearch.DuckDuckGoEngine()), nil
	case "google_search":
		return htmlsearch.New(htmlsearch.GoogleEngine()), nil
	case "google_places":
		if cfg.Places.GooglePlaces.APIKey == "" {
			return nil, fmt.Errorf("google_places requires an API key in config")
		}
		return placesapi.New("google_places", placesclient.New(placesclient.Provider{
			Name: "google_places", Endpoint: cfg.Places.GooglePlaces.Endpoint, APIKey: cfg.Places.GooglePlaces.APIKey,
		}, cfg.Places.Timeout)), nil
	case "foursquare":
		if cfg.Places.Foursquare.APIKey == "" {
			return nil, fmt.Errorf("foursquare requires an API key in config")
		}
		return placesapi.New("foursquare", placesclient.New(placesclient.Provider{
			Name: "foursquare", Endpoint: cfg.Places.Foursquare.Endpoint, APIKey: cfg.Places.Foursquare.APIKey,
		}, cfg.Places.Timeout)), nil
	default:
		return nil, fmt.Errorf("unknown verifier source %q", source)
	}
}

func llmProviders(cfg config.LLMConfig) []llmclient.Provider {
	var providers []llmclient.Provider
	for _, p := range []config.LLMProviderConfig{cfg.Primary, cfg.Fallback} {
		if strings.TrimSpace(p.Endpoint) == "" {
			continue
		}
		providers = append(providers, llmclient.Provider{
			Name: p.Name, Endpoint: p.Endpoint, APIKey: p.APIKey, Model: p.Model,
		})
	}
	return providers
}
