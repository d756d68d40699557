// Command stockpile runs the article stock bot: it watches one Discord
// channel, turns link shares and memos into markdown documents in a local
// vault and mirrors the vault to a remote git repository.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"stockpile/pkg/bot"
	"stockpile/pkg/config"
	"stockpile/pkg/gitsync"
	"stockpile/pkg/pipeline"
	"stockpile/pkg/retry"
	"stockpile/pkg/scraper"
	"stockpile/pkg/tagger"
	"stockpile/pkg/vault"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "stockpile:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := vault.New(cfg.ArticlesPath(), logger)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	syncer, err := gitsync.New(gitsync.Config{
		RepoPath:   cfg.VaultPath,
		Token:      cfg.GitHubToken,
		MaxRetries: cfg.PushRetryCount,
		RetryDelay: cfg.PushRetryDelay,
	}, logger)
	if err != nil {
		return fmt.Errorf("open vault repository: %w", err)
	}

	networkRetry := retry.Policy{
		MaxRetries: cfg.NetworkRetryCount,
		Delay:      cfg.NetworkRetryDelay,
	}

	fetcher := scraper.New(scraper.Config{
		Timeout:     cfg.OGPTimeout,
		MaxBodySize: cfg.MaxContentSize,
		Retry:       networkRetry,
	}, logger)

	tagGen, err := tagger.New(ctx, tagger.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GeminiTimeout,
		Retry:   networkRetry,
		MinTags: cfg.MinTagCount,
		MaxTags: cfg.MaxTagCount,
	}, logger)
	if err != nil {
		return fmt.Errorf("create tag generator: %w", err)
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}

	notifier := bot.NewNotifier(session)
	handler := pipeline.New(fetcher, tagGen, store, syncer, notifier,
		int64(cfg.MaxConcurrent), logger)
	listener := bot.NewListener(session, handler, cfg.DiscordChannelID, logger)

	logger.Info("starting", "vault", cfg.VaultPath, "model", cfg.GeminiModel)
	return listener.Run(ctx)
}
