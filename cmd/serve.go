package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recruiting-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
			_, runs, err := e.Pipeline.Status(r.Context(), "")
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		mux.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
			run, _, err := e.Pipeline.Status(r.Context(), r.PathValue("id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		mux.HandleFunc("GET /runs/{id}/results", func(w http.ResponseWriter, r *http.Request) {
			limit := 100
			if q := r.URL.Query().Get("limit"); q != "" {
				if n, err := strconv.Atoi(q); err == nil {
					limit = n
				}
			}
			results, err := e.Pipeline.Results(r.Context(), r.PathValue("id"), limit)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, results)
		})

		mux.HandleFunc("GET /runs/{id}/queue", func(w http.ResponseWriter, r *http.Request) {
			entries, err := e.Pipeline.VerificationQueue(r.Context(), r.PathValue("id"), store.QueueFilter{
				Priority: r.URL.Query().Get("priority"),
			})
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, entries)
		})

		mux.HandleFunc("GET /candidates/{id}", func(w http.ResponseWriter, r *http.Request) {
			detail, err := e.Pipeline.CandidateDetail(r.Context(), r.PathValue("id"))
			if err != nil {
				writeError(w, err)
				return
			}
			if detail == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "candidate not found"})
				return
			}
			writeJSON(w, http.StatusOK, detail)
		})

		mux.HandleFunc("GET /report", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			report, err := e.Pipeline.DailyReport(r.Context(), q.Get("run_id"), q.Get("role_key"), q.Get("date"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, report)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()

		zap.L().Info("status server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return eris.Wrap(err, "serve")
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (defaults to config)")
	rootCmd.AddCommand(serveCmd)
}
