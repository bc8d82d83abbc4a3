package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/go-classifieds/internal/application/ingest"
	"github.com/go-classifieds/internal/config"
	"github.com/go-classifieds/internal/infrastructure/dynamo"
	s3infra "github.com/go-classifieds/internal/infrastructure/s3"
	snsinfra "github.com/go-classifieds/internal/infrastructure/sns"
	"github.com/go-classifieds/internal/infrastructure/telegram"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	var (
		exportPath string
		channel    string
	)

	root := &cobra.Command{
		Use:   "importer",
		Short: "Batch-import a Telegram channel history into the post store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, reading from environment")
			}
			cfg := config.Load()
			if channel == "" {
				channel = cfg.TelegramChannel
			}
			if channel == "" {
				return fmt.Errorf("channel name required (--channel or TELEGRAM_CHANNEL)")
			}
			return runImport(cmd.Context(), cfg, exportPath, channel)
		},
	}
	root.Flags().StringVar(&exportPath, "export", "result.json", "path to the Telegram Desktop chat export JSON")
	root.Flags().StringVar(&channel, "channel", "", "public channel slug used for source links")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runImport(ctx context.Context, cfg *config.Config, exportPath, channel string) error {
	// One import at a time: concurrent runs would race on media downloads
	// for the same message id.
	lock := flock.New(cfg.ImportLockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another import is already running (lock: %s)", cfg.ImportLockPath)
	}
	defer lock.Unlock()

	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	postRepo := dynamo.NewChannelPostRepo(dynamoClient, cfg.DynamoTables.ChannelPosts)

	s3Client := s3infra.NewClient(cfg)
	mediaStore := s3infra.NewStore(s3Client, cfg.S3BucketName)

	svc := ingest.NewService(postRepo, mediaStore, cfg.MediaBaseURL)
	src := telegram.NewExportSource(exportPath, channel)

	runID := uuid.NewString()
	started := time.Now()
	slog.Info("import started", "run_id", runID, "channel", channel, "export", exportPath)

	count, err := svc.IngestAll(ctx, src)
	if err != nil {
		return fmt.Errorf("import run %s: %w", runID, err)
	}

	summary := fmt.Sprintf("run %s: imported/updated %d posts from %s in %s",
		runID, count, channel, time.Since(started).Round(time.Second))
	slog.Info("import finished", "run_id", runID, "count", count)

	if cfg.SNSTopicARN != "" {
		pub, err := snsinfra.NewPublisher(cfg)
		if err != nil {
			slog.Warn("sns publisher not available", "err", err)
			return nil
		}
		if err := pub.Publish(ctx, "channel import finished", summary); err != nil {
			slog.Warn("could not publish import summary", "err", err)
		}
	}
	return nil
}
