package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"goldmarket/internal/adapter/repository"
	"goldmarket/pkg/config"
	"goldmarket/pkg/logger"
)

// migrate-participants rewrites legacy chat rooms so every reader can rely on
// participants being a plain id list.
func main() {
	dryRun := flag.Bool("dry-run", true, "report what would change without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		l := logger.Base()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Environment)
	logger.SetBase(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.ServiceAccountPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	}

	client, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Firestore client")
	}
	defer client.Close()

	report, err := repository.NewChatMaintenance(client, log).NormalizeParticipants(ctx, *dryRun)
	if err != nil {
		log.Error().Err(err).Interface("report", report).Msg("migration aborted")
		os.Exit(1)
	}

	log.Info().
		Bool("dry_run", *dryRun).
		Int("scanned", report.Scanned).
		Int("rewritten", report.Rewritten).
		Int("guards_written", report.GuardsWritten).
		Strs("unrecoverable", report.Unrecoverable).
		Msg("migration finished")
}
