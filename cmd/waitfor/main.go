package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/emotune/emotune/internal/config"
	"github.com/emotune/emotune/internal/wait"
	"github.com/emotune/emotune/pkg/log"
	"github.com/joho/godotenv"
)

// waitfor blocks until one of the given generation jobs completes, first on
// the server's event stream and then by polling its status endpoint.
func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.Server.LogLevel))

	ids := os.Args[1:]
	if len(ids) == 0 {
		log.Fatal("usage: waitfor <job id> [job id ...]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := wait.New(
		&wait.SSESource{BaseURL: cfg.Wait.BaseURL},
		&wait.StatusPoller{BaseURL: cfg.Wait.BaseURL},
		wait.FromConfig(cfg.Wait),
	)

	rec, err := w.Wait(ctx, ids)
	if err != nil {
		log.Fatal("Wait ended without a result (state %s): %v", w.State(), err)
	}
	log.Info("Job %s complete: %q %s", rec.JobID, rec.Title, rec.AudioURL)
}
