package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"shadex-ai/internal/api"
	"shadex-ai/internal/config"
	"shadex-ai/internal/database"
	"shadex-ai/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "shadex",
		Short:         "WinGo big/small forecast backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API, poller and bot",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(configPath)
			},
		},
		newFetchCommand(&configPath),
		newRoundsCommand(&configPath),
	)
	return root
}

// runServe 启动服务并等待退出信号
func runServe(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}

	if err := app.Start(); err != nil {
		app.Stop()
		return err
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Infof("Received signal %s, shutting down", sig)

	app.Stop()
	return nil
}

func newFetchCommand(configPath *string) *cobra.Command {
	var (
		lottery string
		game    string
		out     string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Save a snapshot of the official round history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

			client := api.NewClient(&cfg.Feed).WithGame(lottery, game)
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			count, err := client.FetchSnapshot(ctx, out, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", count, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&lottery, "lottery", "WinGo", "lottery family")
	cmd.Flags().StringVar(&game, "game", "WinGo_30S", "game code")
	cmd.Flags().StringVar(&out, "out", "wingo_history.json", "output file")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to keep (0 keeps all)")
	return cmd
}

func newRoundsCommand(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "List recently archived rounds from MySQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

			if !cfg.Database.Enabled {
				return fmt.Errorf("database archive is disabled")
			}

			mysql, err := database.NewMySQLDB(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer mysql.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rounds, err := mysql.GetRecentRounds(ctx, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PERIOD\tPREDICTION\tCONFIDENCE\tACTUAL\tSTATUS\tCREATED")
			for _, r := range rounds {
				fmt.Fprintf(w, "%s\t%s (%s)\t%d\t%s\t%s\t%s\n",
					r.Period, r.Prediction, r.PredictionCategory, r.Confidence,
					r.Actual.String, r.Status, r.CreatedAt.Format("01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of rounds to list")
	return cmd
}
