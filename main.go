// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/brunnsviken/skool-api/internal/aggregate"
	"github.com/brunnsviken/skool-api/internal/cache"
	"github.com/brunnsviken/skool-api/internal/config"
	"github.com/brunnsviken/skool-api/internal/cryptutil"
	"github.com/brunnsviken/skool-api/internal/httpapi"
	"github.com/brunnsviken/skool-api/internal/sessionresolver"
	"github.com/brunnsviken/skool-api/internal/shareengine"
	"github.com/brunnsviken/skool-api/internal/store"
	"github.com/brunnsviken/skool-api/logger"
	"github.com/brunnsviken/skool-api/version"
)

const (
	maxMemRatio       = 0.9
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// main wires every component: GOMAXPROCS/GOMEMLIMIT from the cgroup,
// signal-driven cancellation, and a gracefully-shutdown HTTP server.
func main() {
	cfg := config.MustLoad(os.Args[1:])

	logger.SetLevel(cfg.LogLevel)

	logger.Info().Msgf("skool-api starting, built with %v", runtime.Version())

	if limit, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(maxMemRatio),
		memlimit.WithProvider(memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem)),
	); err != nil {
		logger.Warn().Err(err).Msg("unable to set GOMEMLIMIT")
	} else {
		logger.Debug().Int64("bytes", limit).Msg("GOMEMLIMIT set")
	}

	if undo, err := maxprocs.Set(); err != nil {
		logger.Warn().Err(err).Msg("unable to set GOMAXPROCS")
	} else {
		defer undo()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdownTracing, err := initTracing(ctx, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("tracing setup failed, continuing without it")
		} else {
			defer shutdownTracing(context.Background())
		}
	}

	sealer, err := cryptutil.NewSealerFromHex(cfg.AESKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid AES_KEY")
	}

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer st.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}

	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		logger.Fatal().Err(err).Msg("failed to reach redis")
	}
	cancelPing()

	sessionCache := cache.New(rdb, sealer)
	resolver := sessionresolver.New(st, sessionCache, sealer)
	shares := shareengine.New(st, resolver)
	aggregator := aggregate.New(st)

	stockholm, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		logger.Fatal().Err(err).Msg("Europe/Stockholm timezone data unavailable")
	}

	srv := httpapi.New(st, resolver, shares, aggregator, sealer, stockholm)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErrors := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrors <- err

			return
		}

		serveErrors <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("received stop signal, shutting down")
	case err := <-serveErrors:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("exiting")
}

const pingTimeout = 5 * time.Second

// initTracing wires an OTLP/HTTP trace exporter when OTLP_ENDPOINT is
// configured; the service runs fine without it.
func initTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("skool-api"),
			semconv.ServiceVersion(version.ReadVersion("github.com/brunnsviken/skool-api")),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
