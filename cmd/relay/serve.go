// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/webhookrelay/relay/internal/api"
	"github.com/webhookrelay/relay/internal/config"
	"github.com/webhookrelay/relay/internal/metrics"
	"github.com/webhookrelay/relay/internal/queue"
	"github.com/webhookrelay/relay/internal/relay"
	"github.com/webhookrelay/relay/internal/store"
)

func newCmdServe() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the event ingestion, fan-out, and delivery server.",
		RunE: func(command *cobra.Command, args []string) error {
			command.SilenceUsage = true
			if debug {
				logger.SetLevel(logrus.DebugLevel)
				enableLogStacktrace()
			}
			return executeServeCmd()
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging and stack traces on error-level log entries.")

	return cmd
}

func executeServeCmd() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	logger := logger.WithField("instance", instanceID())

	sqlStore, err := store.New(cfg.DatabaseURL, logger)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	if err := sqlStore.Migrate(); err != nil {
		return errors.Wrap(err, "failed to migrate database schema")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "failed to parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return errors.Wrap(err, "failed to reach redis")
	}

	queueConfig := queue.DefaultConfig()
	queueConfig.MaxDeliveryAttempts = cfg.MaxRetryAttempts
	jobQueue := queue.New(redisClient, logger, queueConfig)

	relayMetrics := metrics.New()

	ingestor := relay.NewIngestor(sqlStore, jobQueue, relayMetrics, logger)
	fanout := relay.NewFanoutProcessor(sqlStore, jobQueue, relayMetrics, logger)
	httpClient := &http.Client{Timeout: cfg.WebhookTimeout()}
	deliveryWorker := relay.NewDeliveryWorker(sqlStore, httpClient, relayMetrics, logger)
	retrier := relay.NewRetrier(sqlStore, jobQueue)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	fanoutPool := queue.NewPool(jobQueue, queue.TopicFanout, 2, fanout.Handler(), relayMetrics, logger)
	fanoutPool.Start(runCtx)
	defer fanoutPool.Stop()

	deliveryPool := queue.NewPool(jobQueue, queue.TopicDelivery, cfg.WebhookConcurrency, deliveryWorker.Handler(), relayMetrics, logger)
	deliveryPool.Start(runCtx)
	defer deliveryPool.Stop()

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())

	api.StartedAt = time.Now()
	api.Register(router, &api.Context{
		Store:    sqlStore,
		Queue:    jobQueue,
		Ingestor: ingestor,
		Retrier:  retrier,
		Metrics:  relayMetrics,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		ErrorLog:       stdlog.New(&logrusWriter{logger: logger}, "", 0),
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("relay server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("failed to listen and serve")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	received := <-sig
	logger.WithField("signal", received.String()).Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("error shutting down HTTP server")
	}

	// The deferred fanoutPool.Stop()/deliveryPool.Stop() run next, each
	// blocking until its workers finish whatever job they already claimed
	// before they stop pulling new ones off the queue.
	return nil
}

func instanceID() string {
	if host := os.Getenv("HOSTNAME"); host != "" {
		return host
	}
	return "local"
}
