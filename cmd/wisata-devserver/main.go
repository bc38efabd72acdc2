package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wisatamap/internal/debug"
	"wisatamap/internal/devserver"
	"wisatamap/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	addr := flag.String("addr", envOr("WISATA_DEVSERVER_ADDR", ":5000"), "Listen address")
	seed := flag.String("seed", os.Getenv("WISATA_SEED"), "Seed file (.geojson or .shp); empty uses built-in sample")
	logFile := flag.String("d", "", "Log file (default: stderr)")
	flag.Parse()

	out := os.Stderr
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	l := debug.Setup(out, "", "")

	features, err := devserver.LoadSeed(*seed)
	if err != nil {
		l.Error("seed_error", "path", *seed, "err", err)
		os.Exit(1)
	}
	srv := devserver.New(features)
	l.Info("seed_ok", "features", srv.Count())

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := srv.Router()
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	l.Info("listening", "addr", *addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
