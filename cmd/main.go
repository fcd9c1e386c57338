package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emotune/emotune/internal/config"
	"github.com/emotune/emotune/internal/history"
	"github.com/emotune/emotune/internal/httpapi"
	"github.com/emotune/emotune/internal/llm"
	"github.com/emotune/emotune/internal/notify"
	"github.com/emotune/emotune/internal/service"
	"github.com/emotune/emotune/internal/suno"
	"github.com/emotune/emotune/pkg/icron"
	"github.com/emotune/emotune/pkg/log"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.Server.LogLevel))

	store := notify.NewStore()
	registry := notify.NewRegistry()

	var hooks []notify.CompletionHook
	var historyStore *history.SQLiteStore
	if cfg.History.DBPath != "" {
		historyStore, err = history.NewSQLiteStore(cfg.History.DBPath)
		if err != nil {
			log.Fatal("Failed to open history store: %v", err)
		}
		defer historyStore.Close()
		hooks = append(hooks, func(jobID string, rec notify.Record) {
			if err := historyStore.MarkResolved(context.Background(), jobID, rec.Title, rec.AudioURL, time.Now()); err != nil {
				log.Error("Failed to record completion of job %s: %v", jobID, err)
			}
		})
	}
	broker := notify.NewBroker(store, registry, hooks...)

	sunoClient, err := suno.NewClient(suno.Config{
		APIKey:      cfg.Suno.APIKey,
		APIURL:      cfg.Suno.APIURL,
		CallbackURL: cfg.Suno.CallbackURL,
		Timeout:     cfg.Suno.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create generation API client: %v", err)
	}

	sweeper := cron.New(cron.WithSeconds())
	opts := []service.Option{service.WithCron(sweeper)}
	if cfg.LLM.APIKey != "" {
		llmClient, err := llm.NewClient(&llm.Config{
			APIKey:      cfg.LLM.APIKey,
			APIURL:      cfg.LLM.APIURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			SiteURL:     cfg.LLM.SiteURL,
			AppName:     cfg.LLM.AppName,
		})
		if err != nil {
			log.Fatal("Failed to create LLM client: %v", err)
		}
		opts = append(opts, service.WithPromptModel(llmClient))
	} else {
		log.Warn("LLM_API_KEY not set, prompts fall back to the heuristic builder")
	}
	if historyStore != nil {
		opts = append(opts, service.WithPromptStore(historyStore))
	}

	svc := service.New(*cfg, broker, store, registry, sunoClient, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.ScheduleSweep(ctx); err != nil {
		log.Fatal("Failed to schedule reconciliation sweep: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()
	if info, err := icron.NextTrigger(cfg.Reconcile.CronExpr, time.Now()); err == nil {
		log.Info("Reconciliation sweep scheduled, next run in %s", info.TimeUntilNext.Round(time.Second))
	}

	serverOpts := []httpapi.Option{}
	if historyStore != nil {
		serverOpts = append(serverOpts, httpapi.WithHistory(historyStore))
	}
	srv := httpapi.NewServer(store, registry, broker, svc, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown did not complete cleanly: %v", err)
		}
	}
}
