package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nsyc/page-analyzer/internal/commands"
)

func main() {
	app := &cli.App{
		Name:  "page-analyzer",
		Usage: "analyze web pages, feeds, and API endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "json",
				Usage: "output format: json or yaml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "run a full content analysis of a single URL",
				Action: commands.AnalyzeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "URL to analyze", Required: true},
					&cli.StringFlag{Name: "content-type", Usage: "content type hint (html, rss, atom, api)"},
					&cli.IntFlag{Name: "timeout", Usage: "request timeout in seconds"},
					&cli.BoolFlag{Name: "extract-links", Usage: "collect external links"},
					&cli.BoolFlag{Name: "extract-images", Usage: "collect image URLs"},
					&cli.BoolFlag{Name: "discover-feeds", Usage: "scan for advertised feeds"},
					&cli.BoolFlag{Name: "full-content", Usage: "run main content extraction"},
				},
			},
			{
				Name:   "batch",
				Usage:  "analyze multiple URLs concurrently",
				Action: commands.BatchAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "urls", Usage: "comma-separated URLs (max 50)", Required: true},
					&cli.IntFlag{Name: "max-concurrent", Value: 5, Usage: "concurrent analyses (1-10)"},
					&cli.IntFlag{Name: "timeout", Usage: "request timeout in seconds"},
					&cli.BoolFlag{Name: "extract-links", Usage: "collect external links"},
					&cli.BoolFlag{Name: "extract-images", Usage: "collect image URLs"},
					&cli.BoolFlag{Name: "discover-feeds", Usage: "scan for advertised feeds"},
					&cli.BoolFlag{Name: "full-content", Usage: "run main content extraction"},
				},
			},
			{
				Name:   "feeds",
				Usage:  "discover RSS/Atom feeds reachable from a URL",
				Action: commands.FeedsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page or feed URL", Required: true},
					&cli.IntFlag{Name: "depth", Value: 2, Usage: "discovery depth (1-5)"},
					&cli.BoolFlag{Name: "validate", Value: true, Usage: "validate candidates by parsing them"},
				},
			},
			{
				Name:   "api",
				Usage:  "analyze a structured API response",
				Action: commands.APIAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "API endpoint URL", Required: true},
					&cli.StringFlag{Name: "schema-hint", Usage: "schema name override"},
					&cli.StringFlag{Name: "data-file", Usage: "analyze a local JSON file instead of fetching"},
				},
			},
			{
				Name:   "metadata",
				Usage:  "extract page metadata",
				Action: commands.MetadataAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "URL to inspect", Required: true},
					&cli.BoolFlag{Name: "quick", Usage: "lightweight extraction with a short timeout"},
				},
			},
			{
				Name:   "status",
				Usage:  "report analyzer capabilities and configuration",
				Action: commands.StatusAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
