// phiguard analyzes healthcare documents for privacy and compliance
// risks, from the command line or as an HTTP service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	phiguard "github.com/phiguard/phiguard"
	"github.com/phiguard/phiguard/api"
	"github.com/phiguard/phiguard/config"
)

// version is set by ldflags at build time.
var version = "dev"

func main() {
	var (
		flagConfig   string
		flagAnalyzer string
		flagNoNER    bool
	)

	rootCmd := &cobra.Command{
		Use:   "phiguard",
		Short: "healthcare document privacy and compliance analyzer",
		Long: `Scans documents for PII and PHI using pattern matching and entity
recognition, assesses compliance risks with an external model, and
produces a deterministic compliance score with a full deduction ledger.`,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagAnalyzer, "analyzer", "", "risk analyzer backend: bedrock, mcp, none")
	rootCmd.PersistentFlags().BoolVar(&flagNoNER, "no-ner", false, "disable the entity recognizer")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		if flagAnalyzer != "" {
			cfg.Analyzer.Backend = flagAnalyzer
		}
		if flagNoNER {
			cfg.Detectors.Recognizer = "none"
		}
		return cfg, nil
	}

	var analyzePretty bool
	analyzeCmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "analyze a document and print the report as JSON",
		Long: `Analyzes a text or PDF document. Reads from the given file, or from
stdin when no file is provided.

Examples:
  phiguard analyze notes.txt
  phiguard analyze intake-form.pdf --analyzer bedrock
  cat notes.txt | phiguard analyze --analyzer none`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			pipeline, err := phiguard.New(ctx, cfg)
			if err != nil {
				return err
			}

			var report *phiguard.Report
			if len(args) == 1 {
				path := args[0]
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				if strings.EqualFold(filepath.Ext(path), ".pdf") {
					report, err = pipeline.AnalyzePDF(ctx, data)
				} else {
					report, err = pipeline.Analyze(ctx, string(data))
				}
				if err != nil {
					return err
				}
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				report, err = pipeline.Analyze(ctx, string(data))
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(os.Stdout)
			if analyzePretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(report)
		},
	}
	analyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "indent the JSON output")

	var serveAddr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		Long: `Serves the analysis pipeline over HTTP.

Endpoints:
  POST /v1/analyze  analyze a document (text or base64 file_content)
  GET  /v1/health   liveness and analyzer status
  GET  /metrics     Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Addr = serveAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			pipeline, err := phiguard.New(ctx, cfg)
			if err != nil {
				return err
			}

			return api.NewServer(cfg, pipeline).Run(ctx)
		},
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print phiguard version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("phiguard %s\n", version)
		},
	}

	rootCmd.AddCommand(analyzeCmd, serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "phiguard: %s\n", err)
		os.Exit(1)
	}
}
