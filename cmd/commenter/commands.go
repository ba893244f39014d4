package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/backend"
	"github.com/taskhall/commenter/internal/config"
	"github.com/taskhall/commenter/internal/cooldown"
	"github.com/taskhall/commenter/internal/engine"
	"github.com/taskhall/commenter/internal/imaging"
	"github.com/taskhall/commenter/internal/push"
	"github.com/taskhall/commenter/internal/reconcile"
	"github.com/taskhall/commenter/internal/server"
	"github.com/taskhall/commenter/internal/statestore"
)

func init() {
	rootCmd.AddCommand(serveCmd, poolCmd, claimCmd, submitCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent and its local API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := statestore.Open(cfg.StateDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := push.NewHub(log)
	defer hub.Close()

	timer := cooldown.New(cfg.CooldownDuration(), store, log,
		cooldown.WithOnEnd(func() {
			hub.Publish(engine.Event{Type: engine.EventCooldownEnded})
		}),
	)

	client := backend.New(cfg.BackendURL, cfg.WorkerToken,
		backend.WithTimeout(cfg.RequestTimeout()),
		backend.WithLogger(log),
	)

	eng := engine.New(engine.Config{
		Backend:              client,
		Cooldown:             timer,
		Snapshots:            store,
		Events:               hub,
		Log:                  log,
		PageSize:             cfg.PageSize,
		Imaging:              cfg.ImagingOptions(),
		ExcludedTitleMarkers: cfg.ExcludeTitles,
	})

	ctx := context.Background()
	if err := eng.Start(); err != nil {
		return err
	}
	go timer.Run()
	defer timer.Stop()

	rec := reconcile.New(eng.Claims(), cfg.ReconcileSchedule, log)
	if err := rec.Start(); err != nil {
		return err
	}
	defer rec.Stop()

	// Warm the views; failures here are retryable from the UI.
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := eng.Pool().Refresh(warmCtx); err != nil {
			log.Warn("initial pool fetch", zap.Error(err))
		}
		if err := eng.Claims().Refresh(warmCtx); err != nil {
			log.Warn("initial claims fetch", zap.Error(err))
		}
	}()

	srv := server.New(cfg, log, server.NewDeps(eng, hub))
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "List the first page of claimable tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := oneShotClient()
		if err != nil {
			return err
		}
		page, _, err := client.TaskPool(cmd.Context(), 1, cfg.PageSize, backend.SortByCreateTime, backend.OrderDesc)
		if err != nil {
			return err
		}
		for _, t := range page.List {
			fmt.Printf("%d\t%s\t%s\t%s\n", t.ID, t.Commission, t.DeadlineText, t.Title)
		}
		fmt.Printf("total: %d\n", page.Total)
		return nil
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim <task-id>",
	Short: "Claim one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		client, _, err := oneShotClient()
		if err != nil {
			return err
		}
		result, err := client.ClaimTask(cmd.Context(), taskID)
		if err != nil {
			return err
		}
		fmt.Printf("claimed, record_id=%s\n", result.RecordID)
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <record-id> <task-id> <comment-url> <screenshot>...",
	Short: "Submit evidence for a claim",
	Args:  cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[1])
		}
		client, cfg, err := oneShotClient()
		if err != nil {
			return err
		}

		var screenshots []string
		opts := cfg.ImagingOptions()
		for _, path := range args[3:] {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			compressed, err := imaging.Compress(raw, opts)
			if err != nil {
				return err
			}
			screenshots = append(screenshots, imaging.DataURI(compressed))
		}

		if err := client.SubmitEvidence(cmd.Context(), taskID, args[0], args[2], screenshots); err != nil {
			return err
		}
		fmt.Println("submitted")
		return nil
	},
}

func oneShotClient() (*backend.Client, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	client := backend.New(cfg.BackendURL, cfg.WorkerToken, backend.WithTimeout(cfg.RequestTimeout()))
	return client, cfg, nil
}
