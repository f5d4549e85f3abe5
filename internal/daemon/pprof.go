package daemon

import (
	"context"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"crontick/internal/config"
	logx "crontick/pkg/logx"
)

// startPprof runs the optional debug HTTP server and returns a stop
// function. Disabled configs return a no-op stop.
func startPprof(cfg config.PprofConfig, log logx.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = "127.0.0.1:6060"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// WriteTimeout stays 0: /profile can legitimately take 30s+.
	}

	go func() {
		log.Info("pprof server listening", logx.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("pprof server stopped", logx.Err(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
