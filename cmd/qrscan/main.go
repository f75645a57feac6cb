package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/avelter/qrscan/internal/aiextract"
	"github.com/avelter/qrscan/internal/app"
	"github.com/avelter/qrscan/internal/demoserver"
	"github.com/avelter/qrscan/internal/export"
	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/model"
	"github.com/avelter/qrscan/internal/scanner"
	"github.com/avelter/qrscan/internal/server"
	"github.com/avelter/qrscan/internal/utils"
	"github.com/avelter/qrscan/internal/validator"
	"github.com/avelter/qrscan/internal/webclient"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "qrscan",
		Usage: "scan PDF documents for QR codes and validate their targets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP scan service",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "override the configured listen address",
					},
				},
			},
			{
				Name:      "scan",
				Usage:     "scan a single PDF and print the report as JSON",
				ArgsUsage: "<file.pdf>",
				Action:    scanAction,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "timeout",
						Usage: "per-URL validation timeout in seconds",
						Value: model.DefaultTimeout,
					},
					&cli.StringSliceFlag{
						Name:  "search-text",
						Usage: "text that must appear on the landing page (repeatable)",
					},
					&cli.StringFlag{
						Name:  "domains",
						Usage: "comma-separated list of expected domains",
					},
					&cli.StringFlag{
						Name:  "utm",
						Usage: "expected UTM parameters as key=value pairs separated by ';'",
					},
					&cli.BoolFlag{
						Name:  "extract-text",
						Usage: "extract text lines from odd pages",
					},
					&cli.StringFlag{
						Name:  "ai-query",
						Usage: "free-form AI extraction query",
					},
					&cli.StringSliceFlag{
						Name:  "ai-keyword",
						Usage: "AI extraction keyword (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "ai-whole-doc",
						Usage: "send the whole document to the AI model in one call instead of per page",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "also write per-page results to this CSV file",
					},
				},
			},
			{
				Name:   "demo",
				Usage:  "run the demo landing page server",
				Action: demoAction,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*app.Config, error) {
	return app.LoadConfig(c.String("config"))
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("listen"); addr != "" {
		cfg.ListenAddr = addr
	}

	logger := logging.NewJSONLogger("qrscan")

	srv, err := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.Orchestrator().RunRetentionLoop(ctx, time.Hour)

	httpServer := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.F("addr", cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func scanAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one PDF file argument")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path, err := utils.ExpandPath(c.Args().First())
	if err != nil {
		return err
	}

	task, err := buildTask(c, path)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger("qrscan")

	webclient.RegisterDefaultBackends()
	client, err := webclient.NewWebClient(cfg.WebClientConfig(), logger)
	if err != nil {
		return err
	}
	defer client.Close()

	v := validator.New(client, logger)
	extractor := aiextract.NewGemini(cfg.GoogleAPIKey, logger)
	sc := scanner.New(v, extractor, logger, stderrProgress{})
	if c.Bool("ai-whole-doc") {
		sc.AIStrategy = aiextract.WholeDocument{}
	}

	scanID := uuid.New().String()
	report, err := sc.Scan(c.Context, scanID, task)
	if err != nil {
		return err
	}

	if out := c.String("csv"); out != "" {
		data, err := export.PageResultsCSV(report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(data), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "CSV written to", out)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func buildTask(c *cli.Context, path string) (model.ScanTask, error) {
	task := model.NewScanTask(path, c.Int("timeout"))
	task.SearchTexts = c.StringSlice("search-text")
	task.ExtractText = c.Bool("extract-text")

	if domains := c.String("domains"); domains != "" {
		for _, d := range strings.Split(domains, ",") {
			if d = strings.TrimSpace(d); d != "" {
				task.ExpectedDomains = append(task.ExpectedDomains, d)
			}
		}
	}

	if pairs := c.String("utm"); pairs != "" {
		task.ExpectedUTM = make(map[string]string)
		for _, pair := range strings.Split(pairs, ";") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return task, fmt.Errorf("invalid UTM pair %q, want key=value", pair)
			}
			task.ExpectedUTM[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	spec := &model.AIRequestSpec{
		Query:    c.String("ai-query"),
		Keywords: c.StringSlice("ai-keyword"),
	}
	if !spec.IsZero() {
		task.AIRequest = spec
	}

	return task, nil
}

func demoAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger("demo")

	demoCfg := demoserver.DefaultConfig()
	if cfg.DemoAddr != "" {
		demoCfg.Addr = cfg.DemoAddr
	}

	srv := demoserver.New(demoCfg, logger)
	httpServer := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("demo server listening", logging.F("addr", demoCfg.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// stderrProgress prints scan progress lines for interactive one-shot runs.
type stderrProgress struct{}

func (stderrProgress) Progress(scanID, message string) {
	fmt.Fprintln(os.Stderr, message)
}
