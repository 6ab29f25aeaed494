package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"readsum/internal/bot"
	"readsum/internal/scheduler"
	"readsum/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web page, JSON API and optional Telegram bot",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{logOut: os.Stdout, withHistory: true})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			a.log.ErrorContext(ctx, "Failed to close resources",
				"error", closeErr)
		}
	}()

	log := a.log
	cfg := a.cfg

	addr := cfg.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	var history server.History
	if a.db != nil {
		history = a.db
	}

	srv, err := server.New(a.orchestrator, history, log)
	if err != nil {
		return err
	}

	if a.db != nil {
		sched := scheduler.New(ctx, a.db, cfg.HistoryRetention, log)
		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", scheduler.HourlyPruneSpec)

			return err
		}
		defer sched.Stop()

		log.InfoContext(ctx, "Scheduler is started",
			"spec", scheduler.HourlyPruneSpec,
			"retention", cfg.HistoryRetention.String(),
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr)
	})

	if cfg.BotEnabled() {
		botInst, botErr := bot.New(cfg.Token, a.orchestrator, cfg.AllowedUsers, log)
		if botErr != nil {
			log.ErrorContext(ctx, "Failed to initialize bot",
				"error", botErr,
				"allowedUsersCount", len(cfg.AllowedUsers))

			return botErr
		}
		defer botInst.Stop()

		log.InfoContext(ctx, "Bot is initialized",
			"allowedUsersCount", len(cfg.AllowedUsers))

		g.Go(func() error {
			botInst.Start(gctx)
			return nil
		})
	}

	err = g.Wait()

	log.InfoContext(context.WithoutCancel(ctx), "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return err
}
