// Copyright 2025 Poiesic Systems
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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/quire"
	"github.com/poiesic/quire/config"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/ingestion"
	"github.com/poiesic/quire/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "quire",
		Usage: "Content-aware documentation generation and versioned ingestion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML, TOML or JSON config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file loaded before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Override the data directory",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "document",
				Usage:     "Generate markdown documentation for every file in a directory",
				ArgsUsage: "<dir>",
				Action:    documentCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory receiving the docs_<timestamp> tree",
					},
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "File extensions to include (repeatable)",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Chunk a directory into a new version",
				ArgsUsage: "<dir>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Version name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Version description",
					},
					&cli.StringFlag{
						Name:  "archive-name",
						Usage: "Name of the uploaded archive",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag for the version (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "File extensions to include (repeatable)",
					},
				},
			},
			{
				Name:  "versions",
				Usage: "Manage ingested versions",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List versions, newest first",
						Action: listVersionsCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "status",
								Usage: "Only show versions with this status (active, archived, deleted)",
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Show one version",
						ArgsUsage: "<id>",
						Action:    showVersionCommand,
					},
					{
						Name:      "search",
						Usage:     "Find versions by name, description or tag",
						ArgsUsage: "<query>",
						Action:    searchVersionsCommand,
					},
					{
						Name:   "latest",
						Usage:  "Show the newest active version",
						Action: latestVersionCommand,
					},
					{
						Name:      "archive",
						Usage:     "Mark a version archived",
						ArgsUsage: "<id>",
						Action:    statusCommand(core.VersionStatusArchived),
					},
					{
						Name:      "restore",
						Usage:     "Mark a version active again",
						ArgsUsage: "<id>",
						Action:    statusCommand(core.VersionStatusActive),
					},
					{
						Name:      "delete",
						Usage:     "Delete a version and its storage directory",
						ArgsUsage: "<id>",
						Action:    deleteVersionCommand,
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Inspect and clear cached summaries",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Show the number of cached summaries",
						Action: cacheStatsCommand,
					},
					{
						Name:   "clear-summaries",
						Usage:  "Drop every cached summary",
						Action: clearSummariesCommand,
					},
				},
			},
		},
	}
}

// loadConfig resolves the config from the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var envFiles []string
	if f := c.String("env-file"); f != "" {
		envFiles = append(envFiles, f)
	}
	cfg, err := config.Load(c.String("config"), envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func openEngine(c *cli.Context) (*quire.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	engine, err := quire.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	return engine, nil
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 || c.Args().First() == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return c.Args().First(), nil
}

func documentCommand(c *cli.Context) error {
	ctx := context.Background()

	dir, err := requireArg(c, "directory")
	if err != nil {
		return err
	}
	files, err := ingestion.LoadDirectory(dir, c.StringSlice("ext"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := []ingestion.Option{ingestion.WithProgress(os.Stderr)}
	if out := c.String("output"); out != "" {
		opts = append(opts, ingestion.WithOutputDir(out))
	}
	pipeline, err := engine.NewPipeline(opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Source: %s\n", dir)
	fmt.Fprintf(os.Stderr, "Model: %s\n", engine.Config().Provider().Model)
	fmt.Fprintln(os.Stderr)

	report, err := pipeline.Document(ctx, files)
	if err != nil {
		return fmt.Errorf("documentation failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Successful: %d\nFailed: %d\nSkipped: %d\n", report.Successful, report.Failed, report.Skipped)
	if report.OutputDir != "" {
		fmt.Fprintf(w, "Output: %s\n", report.OutputDir)
	}
	for _, r := range report.Results {
		if !r.OK() {
			fmt.Fprintf(w, "  %s: %v\n", r.Path, r.Err)
		}
	}
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	dir, err := requireArg(c, "directory")
	if err != nil {
		return err
	}
	files, err := ingestion.LoadDirectory(dir, c.StringSlice("ext"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewPipeline(ingestion.WithProgress(os.Stderr))
	if err != nil {
		return err
	}

	result, err := pipeline.IngestVersion(ctx, files, ingestion.VersionParams{
		Name:        c.String("name"),
		Description: c.String("description"),
		ArchiveName: c.String("archive-name"),
		Tags:        c.StringSlice("tag"),
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printVersion(c.App.Writer, result.Version)
	fmt.Fprintf(c.App.Writer, "Documents:   %d (%d summaries)\n", result.Documents, result.Summaries)
	return nil
}

func listVersionsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	records, err := engine.Versions().List(context.Background(), core.VersionStatus(c.String("status")))
	if err != nil {
		return err
	}
	printVersionTable(c.App.Writer, records)
	return nil
}

func showVersionCommand(c *cli.Context) error {
	id, err := requireArg(c, "version id")
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	record, err := engine.Versions().Get(context.Background(), id)
	if err != nil {
		return err
	}
	printVersion(c.App.Writer, record)
	return nil
}

func searchVersionsCommand(c *cli.Context) error {
	query, err := requireArg(c, "query")
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	records, err := engine.Versions().Search(context.Background(), query)
	if err != nil {
		return err
	}
	printVersionTable(c.App.Writer, records)
	return nil
}

func latestVersionCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	record, err := engine.Versions().Latest(context.Background())
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintln(c.App.Writer, "No active versions.")
		return nil
	}
	if err != nil {
		return err
	}
	printVersion(c.App.Writer, record)
	return nil
}

func statusCommand(status core.VersionStatus) cli.ActionFunc {
	return func(c *cli.Context) error {
		id, err := requireArg(c, "version id")
		if err != nil {
			return err
		}
		engine, err := openEngine(c)
		if err != nil {
			return err
		}
		defer engine.Close()

		if err := engine.Versions().UpdateStatus(context.Background(), id, status); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s is now %s\n", id, status)
		return nil
	}
}

func deleteVersionCommand(c *cli.Context) error {
	id, err := requireArg(c, "version id")
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Versions().Delete(context.Background(), id); err != nil {
		if errors.Is(err, core.ErrPersistence) {
			slog.Error("delete incomplete", "id", id, "err", err)
		}
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted %s\n", id)
	return nil
}

func cacheStatsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.CountSummaries(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cached summaries: %d\n", count)
	return nil
}

func clearSummariesCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	count, err := engine.CountSummaries(ctx)
	if err != nil {
		return err
	}
	if err := engine.ClearSummaries(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cleared %d cached summaries\n", count)
	return nil
}

func printVersion(w io.Writer, r *core.VersionRecord) {
	fmt.Fprintf(w, "ID:          %s\n", r.ID)
	fmt.Fprintf(w, "Name:        %s\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", r.Description)
	}
	if r.ArchiveName != "" {
		fmt.Fprintf(w, "Archive:     %s\n", r.ArchiveName)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(r.Tags, ", "))
	}
	fmt.Fprintf(w, "Uploaded:    %s\n", r.UploadedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Status:      %s\n", r.Status)
	fmt.Fprintf(w, "Files:       %d (%s)\n", r.FileCount, strings.Join(r.FileTypes, ", "))
	fmt.Fprintf(w, "Chunks:      %d\n", r.ChunkCount)
	fmt.Fprintf(w, "Storage:     %s\n", r.StoragePath)
}

func printVersionTable(w io.Writer, records []*core.VersionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No versions found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tFILES\tCHUNKS\tUPLOADED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Name, r.Status, r.FileCount, r.ChunkCount, r.UploadedAt.Format(time.DateTime))
	}
	tw.Flush()
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
