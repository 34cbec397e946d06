package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/corvid-labs/tripline/internal/audit"
	"github.com/corvid-labs/tripline/internal/config"
	"github.com/corvid-labs/tripline/internal/reload"
	"github.com/corvid-labs/tripline/internal/store"
)

var (
	serveAddr     string
	serveDBPath   string
	serveAuditLog string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "address to listen on")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "tripline.db", "path to the SQLite decision history database")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "tripline-audit.jsonl", "path to the hash-chained audit log")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the guard as a long-lived HTTP service",
	Long:  "Watches --config for changes, hot-reloading the guard (internal/reload), and exposes POST /check over HTTP, recording every decision to the audit log and the SQLite history store.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	_, f, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	watcher, err := reload.New(configPath, newGuardBuilder(f), func(err error) {
		fmt.Fprintf(os.Stderr, "serve: reload: %v\n", err)
	})
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	db, err := store.Open(serveDBPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer db.Close()

	auditLog, err := audit.Open(serveAuditLog)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer auditLog.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/check", checkHandler(watcher, db, auditLog))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	httpSrv := &http.Server{Addr: serveAddr, Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	watcherDone := make(chan error, 1)
	go func() { watcherDone <- watcher.Run(ctx) }()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "tripline guard listening on %s (config=%q db=%q audit-log=%q)\n", serveAddr, configPath, serveDBPath, serveAuditLog)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	<-watcherDone
	return nil
}

// checkHandler serves POST /check: decode a fixture-shaped request body,
// run it through the currently active Guard, record the decision, and
// reply with the result.
func checkHandler(watcher *reload.Watcher, db *store.DB, auditLog *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var fx fixture
		if err := json.NewDecoder(r.Body).Decode(&fx); err != nil {
			http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
			return
		}

		traceID := fx.TraceID
		if traceID == "" {
			traceID = uuid.NewString()
		}

		result, err := watcher.Guard().Check(r.Context(), fx.toMessages(), fx.toAction(), fx.UntrustedToolNames)
		if err != nil {
			http.Error(w, fmt.Sprintf("check: %v", err), http.StatusInternalServerError)
			return
		}

		if err := db.Insert(traceID, result); err != nil {
			fmt.Fprintf(os.Stderr, "serve: store insert: %v\n", err)
		}
		if err := auditLog.Record(audit.BuildEntry(traceID, result)); err != nil {
			fmt.Fprintf(os.Stderr, "serve: audit record: %v\n", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			TraceID string `json:"trace_id"`
			Result  any    `json:"result"`
		}{traceID, result})
	}
}
