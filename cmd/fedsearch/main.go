package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/fedsearch/pkg/config"
	"github.com/platinummonkey/fedsearch/pkg/history"
	"github.com/platinummonkey/fedsearch/pkg/httputil"
	"github.com/platinummonkey/fedsearch/pkg/search"
)

// datasetFile is the on-disk shape of the local dataset snapshot.
type datasetFile struct {
	Chats  []search.Chat   `json:"chats"`
	People []search.Person `json:"people"`
}

func main() {
	datasetPath := flag.String("dataset", "", "Path to a JSON file with the local dataset snapshot")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dataset := search.NewDataset(nil, nil)
	if *datasetPath != "" {
		loaded, err := loadDataset(*datasetPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load dataset")
		}
		dataset = loaded
	}

	registry := prometheus.NewRegistry()
	metrics := search.NewMetrics(registry)

	fetchers, global := buildFetchers(cfg, logger)
	orchestrator := search.NewOrchestrator(fetchers, global, logger, metrics)
	coordinator := search.NewCoordinator(cfg.CoordinatorConfig(), dataset, orchestrator, logger, metrics)

	var historyStore *history.Store
	if cfg.Redis.Addr != "" {
		historyStore, err = history.NewStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to history store")
		}
		defer historyStore.Close()
		coordinator.SetHistoryRecorder(historyStore)
	}

	router := mux.NewRouter()
	router.Use(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
	)

	var lister search.HistoryLister
	var pinger httputil.Pinger
	if historyStore != nil {
		lister = historyStore
		pinger = historyStore
	}
	search.NewHandlers(coordinator, lister, logger).RegisterRoutes(router)
	httputil.RegisterHealthRoutes(router, httputil.NewHealthChecker(pinger))
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("Starting federated search server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// loadDataset reads the local dataset snapshot from disk.
func loadDataset(path string) (*search.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file datasetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return search.NewDataset(file.Chats, file.People), nil
}

// buildFetchers creates HTTP fetchers for every configured module
// endpoint. The "global" tag names the cross-module endpoint.
func buildFetchers(cfg *config.Config, logger logrus.FieldLogger) ([]search.Fetcher, search.Fetcher) {
	var fetchers []search.Fetcher
	var global search.Fetcher

	for module, endpoint := range cfg.Search.ModuleEndpoints {
		fetcher := search.NewHTTPFetcher(search.Module(module), endpoint, cfg.Search.FetchTimeout)
		if module == "global" {
			global = fetcher
			continue
		}
		fetchers = append(fetchers, fetcher)
		logger.WithFields(logrus.Fields{
			"module":   module,
			"endpoint": endpoint,
		}).Info("Registered remote module")
	}

	return fetchers, global
}
