package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shoesync/backend/config"
	httpDelivery "github.com/shoesync/backend/internal/delivery/http"
	"github.com/shoesync/backend/internal/domain"
	"github.com/shoesync/backend/internal/infrastructure/cache"
	"github.com/shoesync/backend/internal/infrastructure/catalog"
	"github.com/shoesync/backend/internal/infrastructure/store"
	"github.com/shoesync/backend/internal/scheduler"
	"github.com/shoesync/backend/internal/usecase"
)

func main() {
	daemon := flag.Bool("daemon", false, "keep running and sync every sync.interval_hours hours")
	flag.Parse()

	steps, err := stepsFromArgs(flag.Args())
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ShoeSync Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Outlet: %s", cfg.Sync.Outlet)
	log.Printf("Steps: %v", steps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to the snapshot store: %v", err)
	}
	defer pool.Close()

	if err := store.EnsureSchema(ctx, pool, cfg.Sync.Outlet); err != nil {
		log.Fatalf("Failed to ensure store schema: %v", err)
	}

	products := store.NewProductStore(pool, cfg.Sync.BaselineRating)
	prices := store.NewPriceStore(pool)
	stock, err := store.NewStockStore(pool, cfg.Sync.Outlet)
	if err != nil {
		log.Fatalf("Failed to create stock store: %v", err)
	}

	client := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.RequestRPS, cfg.Catalog.FetchWorkers)
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		log.Printf("Catalog client debug mode enabled")
	}

	listings, err := newListingCache(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create listing cache: %v", err)
	}
	log.Printf("Listing cache: %s (TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)

	orchestrator := usecase.NewOrchestrator(
		usecase.NewProductsSynchronizer(client, products, listings, usecase.ProductsSyncConfig{
			EntryURLs:      cfg.Catalog.EntryURLs,
			MaxPages:       cfg.Catalog.MaxPages,
			BaselineRating: cfg.Sync.BaselineRating,
		}),
		usecase.NewPricesSynchronizer(client, products, prices, cfg.Sync.BaselineRating),
		usecase.NewInstockSynchronizer(client, products, stock, cfg.Sync.Outlet, cfg.Sync.BaselineRating),
		usecase.OrchestratorConfig{
			RetryAttempts: cfg.Sync.RetryAttempts,
			RetryDelay:    cfg.Sync.RetryDelay,
		},
	)

	handler := httpDelivery.NewHandler(orchestrator)
	router := httpDelivery.SetupRouter(cfg, handler)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("Status API listening on %s", addr)
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start status API: %v", err)
		}
	}()

	if *daemon {
		sched := scheduler.New(orchestrator, steps, cfg.Sync.IntervalHours)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		<-ctx.Done()
		sched.Stop()
		return
	}

	report, err := orchestrator.RunCycle(ctx, steps)
	if err != nil {
		log.Fatalf("Sync cycle failed: %v", err)
	}
	for _, step := range report.Steps {
		switch {
		case step.Skipped != "":
			log.Printf("%s: skipped (%s)", step.Step, step.Skipped)
		default:
			log.Printf("%s: done", step.Step)
		}
	}
}

// stepsFromArgs maps command line arguments to sync steps, in the spirit of
// `syncd products prices instock`. No arguments selects all steps.
func stepsFromArgs(args []string) ([]usecase.Step, error) {
	if len(args) == 0 {
		return usecase.AllSteps, nil
	}
	var steps []usecase.Step
	for _, arg := range args {
		switch usecase.Step(arg) {
		case usecase.StepProducts, usecase.StepPrices, usecase.StepInstock:
			steps = append(steps, usecase.Step(arg))
		default:
			return nil, fmt.Errorf("unknown step %q (want products, prices or instock)", arg)
		}
	}
	return steps, nil
}

func newListingCache(ctx context.Context, cfg *config.Config) (domain.ListingCache, error) {
	if cfg.Cache.Type == "redis" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisListingCache(client, cfg.Cache.TTL), nil
	}
	return cache.NewMemoryListingCache(cfg.Cache.TTL), nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
