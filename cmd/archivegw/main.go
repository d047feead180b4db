// Command archivegw wires the archive connector's collaborators together:
// configuration, the Cassandra session adapter, the prepared-statement
// registry, the driver-future loop, the day cache, and the background
// worker pool. It is deliberately thin — an HTTP surface in front of this
// is a separate concern entirely.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arkivio/archivecache/internal/archive"
	"github.com/arkivio/archivecache/internal/cassandra"
	"github.com/arkivio/archivecache/internal/config"
	"github.com/arkivio/archivecache/internal/driverfuture"
	"github.com/arkivio/archivecache/internal/workerpool"
)

func main() {
	cfg := config.LoadFromFlags()

	zone, err := time.LoadLocation(cfg.LocalZone)
	if err != nil {
		log.Printf("[archivegw] unknown zone %q, falling back to UTC: %v", cfg.LocalZone, err)
		zone = time.UTC
	}

	session, err := cassandra.NewSession(cfg.ContactPoints, cfg.Keyspace, cfg.PageSize)
	if err != nil {
		log.Fatalf("[archivegw] connecting to cassandra: %v", err)
	}
	defer session.Close()

	ctx := context.Background()
	registry := archive.NewRegistry(ctx, session)

	loop := driverfuture.NewLoop(256)
	go loop.Run(ctx)

	retryPolicy := driverfuture.RetryPolicy{
		MaxAttempts:     cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Retryable:       func(err error) bool { return errors.Is(err, archive.ErrDriverTransient) },
	}

	connector := archive.NewConnector(session, registry, loop, cfg.CacheBytes, cfg.FanOutLimit, zone, retryPolicy)

	pool := workerpool.New(workerpool.Config{WorkerCount: cfg.WorkerCount, QueueSize: cfg.QueueSize})
	if err := pool.Start(); err != nil {
		log.Fatalf("[archivegw] starting worker pool: %v", err)
	}
	defer pool.Stop(30 * time.Second)

	log.Printf("[archivegw] connected to %v/%s, cache budget %d bytes, fan-out limit %d",
		cfg.ContactPoints, cfg.Keyspace, cfg.CacheBytes, cfg.FanOutLimit)

	if err := connector.Healthy(ctx); err != nil {
		log.Printf("[archivegw] startup health check failed: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("[archivegw] shutting down")
}
