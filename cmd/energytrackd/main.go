package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/energytrack-io/energytrack/internal/chart"
	"github.com/energytrack-io/energytrack/internal/config"
	"github.com/energytrack-io/energytrack/internal/csvimport"
	"github.com/energytrack-io/energytrack/internal/repo/sqliterepo"
	"github.com/energytrack-io/energytrack/internal/service"
	httpserver "github.com/energytrack-io/energytrack/internal/transport/http"
)

func main() {
	var (
		configPath = flag.String("config", envOr("ENERGYTRACK_CONFIG", ""), "path to YAML config file")
		addr       = flag.String("addr", "", "listen address (overrides config)")
		dbPath     = flag.String("db", "", "SQLite database path (overrides config)")
		importCSV  = flag.String("import", "", "CSV file of historical readings to load before serving")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	repoCfg := sqliterepo.DefaultConfig()
	repoCfg.Path = cfg.DBPath
	repo, err := sqliterepo.Open(repoCfg)
	if err != nil {
		log.Fatalf("open database %q: %v", cfg.DBPath, err)
	}
	defer repo.Close()
	log.Printf("database ready at %s", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importCSV != "" {
		n, err := csvimport.ImportFile(ctx, repo, *importCSV)
		if err != nil {
			// The import may be partially successful (bad rows are skipped);
			// keep going if we loaded anything at all.
			log.Printf("warning: import %q: %v", *importCSV, err)
		}
		if n == 0 {
			log.Fatalf("no readings imported from %q", *importCSV)
		}
		log.Printf("imported %d readings from %s", n, *importCSV)
	}

	svc := service.NewEnergyUsageService(repo, cfg.WindowDays)
	renderer := chart.NewRenderer(cfg.StaticDir, cfg.ChartWidth, cfg.ChartHeight)
	srv := httpserver.New(svc, renderer, cfg.StaticDir)

	h := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Fatalf("listen %q: %v", cfg.Addr, err)
	}
	log.Printf("HTTP listening on %s (window %dd)", cfg.Addr, cfg.WindowDays)

	go func() {
		<-ctx.Done()
		log.Printf("shutting down HTTP")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()

	if err := h.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatalf("serve: %v", err)
	}
}

func envOr(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}
