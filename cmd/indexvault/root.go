package main

import (
	"fmt"
	"log"
	"os"

	"IndexVault/internal/config"
	"IndexVault/internal/notifier"
	"IndexVault/internal/pipeline"
	"IndexVault/internal/recorder"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "indexvault",
	Short: "Keep a local workbook archive of index closing prices up to date",
	Long: `IndexVault maintains an Excel archive of daily index closes.

Each sync reads the cached history, fetches only what is missing from the
quote source, and rewrites the master and continuous sheets. Other sheets
in the workbook are left untouched.`,
	SilenceUsage: true,
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", def, "path to config file (env CONFIG_PATH)")
}

// app holds the components shared by the sync and watch commands.
type app struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	recorder recorder.Recorder
	telegram *notifier.TelegramNotifier
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	fetcher := pipeline.NewFetcher(cfg)
	log.Printf("[INFO] data source: %s, %d symbols, %s grid", fetcher.Name(), len(cfg.Symbols), cfg.Sync.Granularity)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}

	a := &app{cfg: cfg, recorder: rec}
	var n pipeline.Notifier
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = a.telegram
	}

	a.runner, err = pipeline.NewRunner(cfg, fetcher, rec, n)
	if err != nil {
		rec.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
}
