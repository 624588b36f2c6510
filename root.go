package main

import (
	"log/slog"

	"detectstudio/internal/config"
	"detectstudio/internal/logger"
	"detectstudio/internal/ui"
	processing "detectstudio/processing/detector"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Without a subcommand it opens the
// GUI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detectstudio",
		Short: "Object detection studio",
		Long: `Detection Studio sends pictures or live camera frames to an object
detection server and draws the returned boxes and labels.

The detection server is reached over a websocket at ws://<host>/ws.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGUI,
	}

	cmd.PersistentFlags().String("config", config.DefaultPath(), "Configuration file")
	cmd.PersistentFlags().String("detector", "", "Detection server host:port (overrides config)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAnnotateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadRuntime reads the shared flags into a config and logger.
func loadRuntime(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cmd.ErrOrStderr(), verbose)

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		log.Warn("using default configuration", "path", path, "err", err)
	}

	host, err := cmd.Flags().GetString("detector")
	if err != nil {
		return nil, nil, err
	}
	if host != "" {
		cfg.DetectorHost = host
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func runGUI(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	det := processing.NewRemoteDetector(cfg.GetDetectorHost(), log)
	defer det.Close()

	app, err := ui.CreateApp(cfg, det, log)
	if err != nil {
		return err
	}

	app.Run()
	return nil
}
