package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-classifieds/internal/application/ingest"
	"github.com/go-classifieds/internal/application/resolver"
	"github.com/go-classifieds/internal/config"
	"github.com/go-classifieds/internal/infrastructure/dynamo"
	s3infra "github.com/go-classifieds/internal/infrastructure/s3"
	"github.com/go-classifieds/internal/infrastructure/telegram"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)
	verificationRepo := dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications)
	postRepo := dynamo.NewChannelPostRepo(dynamoClient, cfg.DynamoTables.ChannelPosts)

	s3Client := s3infra.NewClient(cfg)
	mediaStore := s3infra.NewStore(s3Client, cfg.S3BucketName)

	bot, err := telegram.NewBot(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	resolverSvc := resolver.NewService(verificationRepo, bot, bot)
	ingestSvc := ingest.NewService(postRepo, mediaStore, cfg.MediaBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		bot.StopUpdates()
		cancel()
	}()

	slog.Info("bot started", "username", bot.Username())
	for update := range bot.Updates() {
		switch {
		case update.Message != nil && update.Message.IsCommand():
			if update.Message.Command() != "start" {
				continue
			}
			cmd := resolver.StartCommand{
				ChatID: update.Message.Chat.ID,
				Arg:    update.Message.CommandArguments(),
			}
			if from := update.Message.From; from != nil {
				cmd.UserID = from.ID
				cmd.Handle = from.UserName
				cmd.FirstName = from.FirstName
				cmd.LastName = from.LastName
			}
			if err := resolverSvc.HandleStart(ctx, cmd); err != nil {
				slog.Error("start command failed", "chat_id", cmd.ChatID, "err", err)
			}

		case update.ChannelPost != nil:
			// Live ingestion keeps the post feed current between batch imports.
			if cfg.TelegramChannel == "" {
				continue
			}
			msg := bot.ChannelMessage(update.ChannelPost)
			stored, err := ingestSvc.IngestOne(ctx, cfg.TelegramChannel, msg)
			if err != nil {
				slog.Error("live ingest failed", "tg_message_id", msg.ID, "err", err)
			} else if stored {
				slog.Info("ingested live channel post", "tg_message_id", msg.ID)
			}
		}
	}
	slog.Info("bot stopped")
}
