package main

import (
	"fmt"
	"os"
	"path/filepath"

	"recall/internal/assistant"
	"recall/internal/config"
	"recall/internal/logger"
	"recall/internal/storage"
	"recall/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var settings = config.New()

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Terminal chat client with a searchable chat history",
	Long: `Recall is a terminal chat client. Past conversations are kept in a local
SQLite database and can be searched, previewed, renamed and deleted from the
history dialog (ctrl+o).`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("db", "", "Path to the chat database (default ~/.recall/chats.db)")
	flags.String("log", "", "Path to the log file (default ~/.recall/recall.log)")
	_ = settings.BindPFlag(config.KeyDebug, flags.Lookup("debug"))
	_ = settings.BindPFlag(config.KeyDBPath, flags.Lookup("db"))
	_ = settings.BindPFlag(config.KeyLogPath, flags.Lookup("log"))

	rootCmd.Flags().String("model", "", "Chat completion model")
	rootCmd.Flags().Bool("sidebar", true, "Show the chat sidebar on start")
	_ = settings.BindPFlag(config.KeyModel, rootCmd.Flags().Lookup("model"))
	_ = settings.BindPFlag(config.KeySidebar, rootCmd.Flags().Lookup("sidebar"))
}

func initConfig() {
	logger.SetDebug(settings.GetBool(config.KeyDebug))
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("recall %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("recall %s\n", version)
}

// setup loads the configuration, starts file logging and opens the database.
// The returned cleanup closes both.
func setup() (*config.Config, *storage.Database, func(), error) {
	cfg, err := config.Load(settings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	if err := logger.Init(cfg.LogPath); err != nil {
		return nil, nil, nil, fmt.Errorf("error initializing logger: %w", err)
	}
	logger.SetDebug(cfg.Debug)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Close()
		return nil, nil, nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.DBPath, logger.ComponentLogger("storage"))
	if err != nil {
		logger.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cleanup := func() {
		db.Close()
		logger.Close()
	}
	return cfg, db, cleanup, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, db, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	log := logger.ComponentLogger("cli")
	if cfg.APIKey == "" {
		log.Warn("No API key configured, replies are disabled")
	}
	log.Info("Starting", "version", version, "db", cfg.DBPath, "model", cfg.Model)

	m := ui.NewModel(db, assistant.New(cfg.APIKey, cfg.Model), ui.Options{
		ShowSidebar:       cfg.Sidebar,
		PreviewMinDisplay: cfg.PreviewMinDisplay,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
