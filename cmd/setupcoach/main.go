// Command setupcoach runs the telemetry analysis pipeline: it ingests
// simulator telemetry (live UDP or a recorded replay), detects handling
// issues, aggregates them into findings and serves recommendations over
// HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/apexloop-data/setup.coach/internal/api"
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/db"
	"github.com/apexloop-data/setup.coach/internal/detect"
	"github.com/apexloop-data/setup.coach/internal/findings"
	"github.com/apexloop-data/setup.coach/internal/pipeline"
	"github.com/apexloop-data/setup.coach/internal/recommend"
	"github.com/apexloop-data/setup.coach/internal/source"
	"github.com/apexloop-data/setup.coach/internal/timeutil"
	"github.com/apexloop-data/setup.coach/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	sourceKind = flag.String("source", "udp", "telemetry source: udp or replay")
	sourceAddr = flag.String("addr", ":9801", "UDP listen address for the telemetry bridge")
	replayFile = flag.String("replay-file", "", "recorded stream to play back (implies -source replay)")
	recordFile = flag.String("record-file", "", "write the annotated stream to this file")
	configFile = flag.String("config", "", "detection tuning file (JSON)")
	dbFile     = flag.String("db", "setup_coach.db", "SQLite database path, empty to disable persistence")
	showVer    = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("setupcoach %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	cfg := config.Default()
	var err error
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var producer source.Producer
	if *replayFile != "" || *sourceKind == "replay" {
		if *replayFile == "" {
			log.Fatal("-source replay requires -replay-file")
		}
		producer, err = source.OpenReplay(*replayFile)
	} else {
		producer, err = source.ListenUDP(*sourceAddr)
	}
	if err != nil {
		log.Fatalf("failed to open telemetry source: %v", err)
	}
	defer producer.Close()

	aggregator := findings.NewAggregator()
	engine := recommend.NewEngine()
	runner := pipeline.NewRunner(detect.NewBank(cfg), aggregator)
	collector := pipeline.NewCollector(producer, runner, timeutil.RealClock{}, cfg)

	var store *db.DB
	if *dbFile != "" {
		store, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(aggregator, engine, runner, store)

	// live view consumer
	liveQueue := pipeline.NewConsumer("live", cfg.GetFanoutQueueSize())
	runner.Subscribe(liveQueue)
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Run(ctx, liveQueue.C())
	}()

	// persistence consumer
	if store != nil {
		dbQueue := pipeline.NewConsumer("db", cfg.GetFanoutQueueSize())
		runner.Subscribe(dbQueue)
		persister := db.NewPersister(store, runner.Session)
		wg.Add(1)
		go func() {
			defer wg.Done()
			persister.Run(ctx, dbQueue.C())
		}()
	}

	// recording consumer
	if *recordFile != "" {
		recorder, err := source.NewRecorder(*recordFile, runner.Session)
		if err != nil {
			log.Fatalf("failed to open recording file: %v", err)
		}
		recQueue := pipeline.NewConsumer("recorder", cfg.GetFanoutQueueSize())
		runner.Subscribe(recQueue)
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Run(ctx, recQueue.C())
		}()
	}

	// collector loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := collector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("collector stopped: %v", err)
		}
		log.Print("collector routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		httpServer := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(server.ServeMux()),
		}

		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
