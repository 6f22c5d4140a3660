// Package commands implements the CLI actions. Each action builds a manager
// from the resolved config, runs one operation, and prints the result to
// stdout as JSON or YAML. Logs go to stderr.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/nsyc/page-analyzer/models"
	"github.com/nsyc/page-analyzer/pkg/manager"
)

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func loadConfig(c *cli.Context) (models.AnalysisConfig, error) {
	path := c.String("config")
	if path == "" {
		return models.DefaultConfig(), nil
	}
	return models.LoadConfig(path)
}

func newManager(c *cli.Context) (*manager.AnalysisManager, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return manager.New(cfg, newLogger(c)), nil
}

// output prints a result to stdout in the requested format.
func output(c *cli.Context, v any) error {
	switch strings.ToLower(c.String("format")) {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Print(string(data))
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Println(string(data))
	}
	return nil
}

// analysisOptions translates command flags into per-call option overlays.
func analysisOptions(c *cli.Context) map[string]any {
	options := make(map[string]any)
	if c.IsSet("timeout") {
		options["timeout"] = c.Int("timeout")
	}
	if c.IsSet("content-type") {
		options["content_type"] = c.String("content-type")
	}
	if c.IsSet("extract-links") {
		options["extract_links"] = c.Bool("extract-links")
	}
	if c.IsSet("extract-images") {
		options["extract_images"] = c.Bool("extract-images")
	}
	if c.IsSet("discover-feeds") {
		options["discover_feeds"] = c.Bool("discover-feeds")
	}
	if c.IsSet("full-content") {
		options["extract_main_content"] = c.Bool("full-content")
	}
	if len(options) == 0 {
		return nil
	}
	return options
}

// AnalyzeAction runs a full analysis of a single URL.
func AnalyzeAction(c *cli.Context) error {
	rawURL := c.String("url")
	if rawURL == "" {
		return fmt.Errorf("no URL provided via --url flag")
	}

	m, err := newManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	result := m.Analyze(c.Context, rawURL, analysisOptions(c))
	return output(c, result)
}

// BatchAction analyzes a comma-separated list of URLs concurrently.
func BatchAction(c *cli.Context) error {
	urlsStr := c.String("urls")
	if urlsStr == "" {
		return fmt.Errorf("no URLs provided via --urls flag")
	}

	urls := strings.Split(urlsStr, ",")
	for i := range urls {
		urls[i] = strings.TrimSpace(urls[i])
	}

	m, err := newManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	response, err := m.AnalyzeBatch(c.Context, urls, c.Int("max-concurrent"), analysisOptions(c))
	if err != nil {
		return err
	}
	return output(c, response)
}

// FeedsAction discovers the feeds reachable from a URL.
func FeedsAction(c *cli.Context) error {
	rawURL := c.String("url")
	if rawURL == "" {
		return fmt.Errorf("no URL provided via --url flag")
	}

	m, err := newManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	return output(c, m.ExtractFeeds(c.Context, rawURL, c.Int("depth"), c.Bool("validate")))
}

// APIAction analyzes a structured API response, either fetched from the
// endpoint or read from a local JSON file.
func APIAction(c *cli.Context) error {
	rawURL := c.String("url")
	if rawURL == "" {
		return fmt.Errorf("no URL provided via --url flag")
	}

	var data any
	if path := c.String("data-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read data file: %w", err)
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			data = string(raw)
		}
	}

	m, err := newManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	return output(c, m.AnalyzeAPIResponse(c.Context, rawURL, data, c.String("schema-hint")))
}

// MetadataAction extracts page metadata, optionally in quick mode.
func MetadataAction(c *cli.Context) error {
	rawURL := c.String("url")
	if rawURL == "" {
		return fmt.Errorf("no URL provided via --url flag")
	}

	m, err := newManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	return output(c, m.GetPageMetadata(c.Context, rawURL, c.Bool("quick")))
}

// StatusAction reports analyzer capabilities and configuration.
func StatusAction(c *cli.Context) error {
	m, err := newManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	return output(c, m.Status())
}
