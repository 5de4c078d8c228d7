// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"

	"github.com/george-dekermenjian/glassbox/services/portfolio/agent"
	"github.com/george-dekermenjian/glassbox/services/portfolio/config"
	"github.com/george-dekermenjian/glassbox/services/portfolio/middleware"
	"github.com/george-dekermenjian/glassbox/services/portfolio/observability"
	"github.com/george-dekermenjian/glassbox/services/portfolio/routes"
	"github.com/george-dekermenjian/glassbox/services/portfolio/tools"
)

func initTracer(otelEndpoint string) (func(context.Context), error) {
	ctx := context.Background()

	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, trace export disabled")
		return func(context.Context) {}, nil
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(config.ServiceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer(cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.DefaultMetrics = observability.NewStreamingMetrics(prometheus.DefaultRegisterer)

	profile, err := tools.LoadProfile()
	if err != nil {
		log.Fatalf("FATAL: Could not load the profile dataset: %v", err)
	}

	oracle := tools.NewOracle(cfg.CodebaseRoot, cfg.MaxFileLines)
	registry := tools.NewDefaultRegistry(profile, oracle)
	slog.Info("Tool registry ready", "tools", registry.Names())

	runtime, err := agent.NewOpenAIRuntime(registry)
	if err != nil {
		log.Fatalf("Failed to initialize agent runtime: %v", err)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	routes.SetupRoutes(router, runtime, profile)

	log.Println("Starting the portfolio server on port ", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
