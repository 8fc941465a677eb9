package main

import (
	"context"
	"net/http"
	"syscall"
	"time"

	"os/signal"

	"github.com/spf13/cobra"

	"chaoskit/internal/admin"
	"chaoskit/internal/chaos"
	"chaoskit/internal/logging"
	"chaoskit/internal/snippets"
)

var (
	serveAddr      string
	serveAdminAddr string
	serveGateID    string
	servePrintOnly bool
	serveLogFile   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the demo guarded snippet service",
	Long:  "serve hosts an in-memory snippet API whose operations pass through the chaos gate, plus an admin surface for toggling the policy at runtime.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		reporter, cleanup, err := newReporters(log, servePrintOnly, serveLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		// Env policy with a runtime override layered on top: operators
		// toggle via env before start or via the admin API while running.
		source := chaos.NewOverrideSource(chaos.EnvSource{})
		gate := chaos.NewGate(serveGateID, source, reporter)
		store := snippets.NewStore(gate)
		seed(ctx, store)

		adminSrv := admin.NewServer(gate, source)
		go func() {
			log.Info("admin surface listening", "addr", serveAdminAddr)
			if err := adminSrv.Start(ctx, serveAdminAddr); err != nil && err != http.ErrServerClosed {
				log.Error("admin server failed", "err", err)
			}
		}()

		apiSrv := &http.Server{Addr: serveAddr, Handler: snippets.NewAPI(store).Handler()}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiSrv.Shutdown(shutdownCtx); err != nil {
				log.Error("api shutdown failed", "err", err)
			}
		}()

		log.Info("snippet API listening", "addr", serveAddr, "gate_id", serveGateID)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		log.Info("snippet service stopped")
		return nil
	},
}

// seed loads a few snippets so GET and search have data on a fresh start.
// Seeding goes through the gate like any other call; a seed lost to an
// injected fault is only logged.
func seed(ctx context.Context, store *snippets.Store) {
	log := logging.FromContext(ctx)
	samples := []struct{ title, language, content string }{
		{"hello http", "go", "http.ListenAndServe(\":8080\", nil)"},
		{"retry loop", "go", "for i := 0; i < 3; i++ { if err = op(); err == nil { break } }"},
		{"uniform delay", "python", "await asyncio.sleep(random.uniform(0, max_delay))"},
	}
	for _, s := range samples {
		if _, err := store.Save(ctx, s.title, s.language, s.content); err != nil {
			log.Warn("seed snippet failed", "title", s.title, "err", err)
		}
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Snippet API listen address")
	serveCmd.Flags().StringVar(&serveAdminAddr, "admin-addr", ":8081", "Admin surface listen address")
	serveCmd.Flags().StringVar(&serveGateID, "gate-id", "snippy", "Gate identifier tagged on every decision")
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print decisions to STDOUT instead of writing to DB")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export the decision log (JSONL)")
}
