// Copyright 2026 OpenClerk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/openclerk/openclerk"
	"github.com/openclerk/openclerk/ai"
	"github.com/openclerk/openclerk/config"
	"github.com/openclerk/openclerk/feed"
	"github.com/openclerk/openclerk/ingestion"
	"github.com/openclerk/openclerk/reembed"
	"github.com/openclerk/openclerk/retry"
	"github.com/openclerk/openclerk/server"
	"github.com/openclerk/openclerk/transcript"
)

func main() {
	app := &cli.App{
		Name:  "openclerk",
		Usage: "Council meeting ingestion and recap service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "Listen port (overrides PORT)",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Run one ingestion pass over the channel feed",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Reprocess videos that already completed",
					},
					&cli.StringFlag{
						Name:  "video",
						Usage: "Target a single video ID instead of the full feed",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Processing mode for a targeted video (full, recap_only)",
					},
				},
			},
			{
				Name:   "restore",
				Usage:  "Restore a prior recap version for a meeting",
				Action: restoreCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "video",
						Usage:    "Video ID of the meeting",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "version",
						Usage:    "Version number to restore",
						Required: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for all stored chunks",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks per embedding request",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for embedding requests",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openService builds a Service from environment configuration.
func openService(cfg *config.Config) (*openclerk.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(cfg.AI.Host),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithRecapModel(cfg.AI.RecapModel),
		ai.WithToken(cfg.AI.Token),
		ai.WithMaxInputChars(cfg.AI.MaxInputChars),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return openclerk.NewService(cfg.Store.Path, openclerk.WithAIConfig(aiConfig))
}

func newPipeline(svc *openclerk.Service, cfg *config.Config) (*ingestion.Pipeline, error) {
	if cfg.Feed.ChannelID == "" {
		return nil, fmt.Errorf("FEED_CHANNEL_ID is required")
	}

	fetcher := transcript.NewYouTubeFetcher(cfg.Feed.WorkDir)
	discoverer := feed.NewClient(cfg.Feed.ChannelID)
	return svc.NewIngestionPipeline(fetcher, discoverer)
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port := c.String("port"); port != "" {
		cfg.Server.Port = port
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	pipeline, err := newPipeline(svc, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(pipeline, svc.MeetingRepository(), svc.VersionRepository(), searcher,
		server.WithCORS(cfg.Server.CORSAllowedOrigins))
	if err != nil {
		return err
	}

	slog.Info("starting server", "port", cfg.Server.Port)
	return srv.Run(":" + cfg.Server.Port)
}

func ingestCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	pipeline, err := newPipeline(svc, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	trigger := ingestion.Trigger{
		Force:   c.Bool("force"),
		VideoID: c.String("video"),
		Mode:    ingestion.Mode(c.String("mode")),
	}

	sink := ingestion.SinkFunc(func(event ingestion.ProgressEvent) {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", event.VideoID, event.Step, event.Message)
	})

	summary, err := pipeline.Run(context.Background(), trigger, sink)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Done. processed=%d skipped=%d failed=%d noCaptions=%d\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.NoCaptions)
	if summary.Failed > 0 {
		return fmt.Errorf("%d videos failed", summary.Failed)
	}
	return nil
}

func restoreCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	videoID := c.String("video")
	version := c.Int("version")
	if version < 1 {
		return fmt.Errorf("version must be a positive integer")
	}

	meeting, err := svc.VersionRepository().Restore(context.Background(), videoID, version)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Restored %s to the content of version %d (now version %d)\n",
		videoID, version, meeting.Version)
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		Retry: retry.Policy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
		},
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	fmt.Fprintf(os.Stderr, "Store: %s\n", cfg.Store.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	reembedder := svc.NewReembedder(reembedConfig, os.Stderr)
	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("re-embedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
