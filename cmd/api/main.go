package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/binwatch/internal/application"
	appingest "github.com/bryanwahyu/binwatch/internal/application/ingest"
	appnlq "github.com/bryanwahyu/binwatch/internal/application/nlq"
	apprecon "github.com/bryanwahyu/binwatch/internal/application/recon"
	appreport "github.com/bryanwahyu/binwatch/internal/application/report"
	appsnapshots "github.com/bryanwahyu/binwatch/internal/application/snapshots"
	"github.com/bryanwahyu/binwatch/internal/config"
	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
	domnlq "github.com/bryanwahyu/binwatch/internal/domain/nlq"
	domrecon "github.com/bryanwahyu/binwatch/internal/domain/recon"
	openaiclient "github.com/bryanwahyu/binwatch/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/binwatch/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/binwatch/internal/infra/db/postgres"
	"github.com/bryanwahyu/binwatch/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/binwatch/internal/infra/storage"
	"github.com/bryanwahyu/binwatch/internal/middleware"
)

type repositories struct {
	anomalies   domrecon.AnomalyRepository
	orders      inventory.OrderRepository
	allocations inventory.AllocationRepository
	snapshots   inventory.SnapshotRepository
	items       inventory.ItemRepository
	bins        inventory.BinRepository
}

// buildRepositories pilih implementasi persistence sesuai driver
func buildRepositories(ctx context.Context, cfg *config.Config) (*sql.DB, *repositories, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		return db, &repositories{
			anomalies:   mysqlp.NewAnomalyRepository(db),
			orders:      mysqlp.NewOrderRepository(db),
			allocations: mysqlp.NewAllocationRepository(db),
			snapshots:   mysqlp.NewSnapshotRepository(db),
			items:       mysqlp.NewItemRepository(db),
			bins:        mysqlp.NewBinRepository(db),
		}, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return db, &repositories{
			anomalies:   postgresp.NewAnomalyRepository(db),
			orders:      postgresp.NewOrderRepository(db),
			allocations: postgresp.NewAllocationRepository(db),
			snapshots:   postgresp.NewSnapshotRepository(db),
			items:       postgresp.NewItemRepository(db),
			bins:        postgresp.NewBinRepository(db),
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database
	db, repos, err := buildRepositories(ctx, cfg)
	if err != nil {
		log.Fatalf("database connect error: %v", err)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// client AI opsional; tanpa key NLQ jalan pakai jawaban template
	var aiClient domnlq.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	clock := application.SystemClock{}

	reconSvc := &apprecon.Service{
		Anomalies:   repos.anomalies,
		Orders:      repos.orders,
		Allocations: repos.allocations,
		Snapshots:   repos.snapshots,
		Items:       repos.items,
		Clock:       clock,
		Cfg: apprecon.Config{
			StagingBins:      cfg.StagingBinsList(),
			StagingThreshold: time.Duration(cfg.Reconcile.StagingThresholdHours) * time.Hour,
			RecentScanWindow: time.Duration(cfg.Reconcile.RecentScanHours) * time.Hour,
			RunTimeout:       time.Duration(cfg.Reconcile.RunTimeoutSeconds) * time.Second,
		},
	}
	ingestSvc := &appingest.Service{
		Orders:      repos.orders,
		Allocations: repos.allocations,
		Items:       repos.items,
		Bins:        repos.bins,
	}
	snapshotSvc := &appsnapshots.Service{
		Snapshots: repos.snapshots,
		Photos:    store,
		Clock:     clock,
	}
	reportSvc := &appreport.Service{
		Anomalies: repos.anomalies,
		Store:     store,
	}
	nlqSvc := &appnlq.Service{
		Client:    aiClient,
		Snapshots: repos.snapshots,
		Items:     repos.items,
		Orders:    repos.orders,
		Anomalies: repos.anomalies,
		Clock:     clock,
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(cfg.API.Key))
	mux.Use(middleware.RateLimitMiddleware(100, 10))

	mux.Mount("/", httpserver.NewRouter(httpserver.Deps{
		Recon:       reconSvc,
		Ingest:      ingestSvc,
		Snapshots:   snapshotSvc,
		Report:      reportSvc,
		NLQ:         nlqSvc,
		Orders:      repos.orders,
		Allocations: repos.allocations,
		Items:       repos.items,
		Bins:        repos.bins,
		HealthCheckers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
			"storage":  middleware.CheckerFunc(store.Ping),
		},
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		// run endpoint sinkron, write timeout harus > run timeout
		WriteTimeout: time.Duration(cfg.Reconcile.RunTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s driver=%s", addr, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
