// Command pipeline boots the full lead pipeline service: config, logging,
// the Postgres store, embedded migrations, every verifier and scoring
// collaborator, the background schedulers, and the dashboard HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/5n10/domain-lead-pipeline/internal/classifier"
	"github.com/5n10/domain-lead-pipeline/internal/clients/chainsclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/httpprobe"
	"github.com/5n10/domain-lead-pipeline/internal/clients/llmclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/notify"
	"github.com/5n10/domain-lead-pipeline/internal/clients/placesclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/searchclient"
	"github.com/5n10/domain-lead-pipeline/internal/config"
	"github.com/5n10/domain-lead-pipeline/internal/contacts"
	"github.com/5n10/domain-lead-pipeline/internal/export"
	"github.com/5n10/domain-lead-pipeline/internal/features"
	"github.com/5n10/domain-lead-pipeline/internal/httpapi"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/migrations"
	"github.com/5n10/domain-lead-pipeline/internal/schedule"
	"github.com/5n10/domain-lead-pipeline/internal/scoring"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	domainsync "github.com/5n10/domain-lead-pipeline/internal/sync"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
	"github.com/5n10/domain-lead-pipeline/internal/verify/htmlsearch"
	"github.com/5n10/domain-lead-pipeline/internal/verify/llmsearch"
	"github.com/5n10/domain-lead-pipeline/internal/verify/metasearch"
	"github.com/5n10/domain-lead-pipeline/internal/verify/nameguess"
	"github.com/5n10/domain-lead-pipeline/internal/verify/placesapi"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (overrides CONFIG_FILE)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config server.host/port)")
	flag.Parse()

	if trimmed := strings.TrimSpace(*configPath); trimmed != "" {
		os.Setenv("CONFIG_FILE", trimmed)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Logging)

	rootCtx := context.Background()
	st, err := store.Open(rootCtx, cfg.Database.DSN, store.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetimeDuration(),
	}, logger)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer st.Close()

	if cfg.Database.MigrateOnStart {
		if err := migrations.Run(st.DB.DB); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
	}

	collab, verifierSettings := buildCollaborators(cfg, st, logger)
	settings := schedule.SettingsFromConfig(cfg)
	settings.Verifiers = verifierSettings

	sched := schedule.New(collab, settings, logger)

	businesses := store.NewBusinessStore(st.DB)
	metrics := httpapi.NewMetrics()
	api := httpapi.NewService(rootCtx, sched, businesses, cfg.Export.OutputDir, cfg.Auth, metrics, logger)

	listenAddr := determineAddr(*addr, cfg)
	server := &http.Server{Addr: listenAddr, Handler: api.Router()}

	sched.Start(rootCtx)
	go func() {
		logger.WithField("addr", listenAddr).Info("pipeline service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("http shutdown: %v", err)
	}
}

// buildCollaborators wires every concrete client, verifier, and store-backed
// component the schedulers orchestrate, plus the per-source pacing settings
// those verifiers' clients don't already carry internally.
func buildCollaborators(cfg *config.Config, st *store.Store, logger *logging.Logger) (schedule.Collaborators, map[string]config.VerifierConfig) {
	classifierClient := classifier.New(classifier.Config{
		RDAPBaseURL: cfg.RDAP.BaseURL,
		DNSTimeout:  cfg.DNS.Timeout,
		HTTPConfig: httpprobe.Config{
			ConnectTimeout: cfg.HTTPProbe.ConnectTimeout,
			TotalTimeout:   cfg.HTTPProbe.TotalTimeout,
			MaxBodyBytes:   cfg.HTTPProbe.MaxBodyBytes,
			TCPPorts:       cfg.HTTPProbe.TCPPorts,
		},
		ProbeTCP: cfg.HTTPProbe.EnableTCP,
	}, logger)

	probeClient := httpprobe.New(httpprobe.Config{
		ConnectTimeout: cfg.HTTPProbe.ConnectTimeout,
		TotalTimeout:   cfg.HTTPProbe.TotalTimeout,
		MaxBodyBytes:   cfg.HTTPProbe.MaxBodyBytes,
		TCPPorts:       cfg.HTTPProbe.TCPPorts,
	})
	searchClient := searchclient.New(cfg.MetaSearch.BaseURL, cfg.MetaSearch.Timeout)
	llmClient := llmclient.New(llmProviders(cfg.LLM), cfg.LLM.Timeout)

	featureLoader := features.New(st)
	chainsCache := chainsclient.NewCache(chainsclient.New(cfg.Chains.SPARQLEndpoint))
	scoreRunner := scoring.NewRunner(st, featureLoader, chainsCache, logger)

	layers := []verify.Verifier{
		nameguess.New(probeClient),
		metasearch.New(searchClient),
		llmsearch.New(searchClient, llmClient),
		htmlsearch.New(htmlsearch.DuckDuckGoEngine()),
		htmlsearch.New(htmlsearch.GoogleEngine()),
	}

	apiVerifiers := []verify.Verifier{}
	if cfg.Places.GooglePlaces.APIKey != "" {
		apiVerifiers = append(apiVerifiers, placesapi.New("google_places",
			placesclient.New(placesclient.Provider{
				Name: "google_places", Endpoint: cfg.Places.GooglePlaces.Endpoint, APIKey: cfg.Places.GooglePlaces.APIKey,
			}, cfg.Places.Timeout)))
	}
	if cfg.Places.Foursquare.APIKey != "" {
		apiVerifiers = append(apiVerifiers, placesapi.New("foursquare",
			placesclient.New(placesclient.Provider{
				Name: "foursquare", Endpoint: cfg.Places.Foursquare.Endpoint, APIKey: cfg.Places.Foursquare.APIKey,
			}, cfg.Places.Timeout)))
	}

	collab := schedule.Collaborators{
		DB:              st,
		Syncer:          domainsync.New(st, logger),
		Classifier:      classifierClient,
		RoleEnricher:    contacts.New(st, logger),
		ContactExporter: contacts.NewExporter(st, logger),
		ScoreRunner:     scoreRunner,
		LeadExporter:    export.New(st, featureLoader, logger),
		Notify:          notify.NewLogSink(logger),
		VerifierLayers:  layers,
		APIVerifiers:    apiVerifiers,
	}
	return collab, cfg.Verifiers
}

// llmProviders builds the ordered fallback list llmclient.Client tries,
// skipping any provider the operator left unconfigured.
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

func determineAddr(flagAddr string, cfg *config.Config) string {
	addr := strings.TrimSpace(flagAddr)
	if addr != "" {
		return addr
	}
	host := strings.TrimSpace(cfg.Server.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	return host + ":" + strconv.Itoa(port)
}
