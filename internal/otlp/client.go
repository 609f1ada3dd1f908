// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package otlp mirrors imported interactions to an OTLP endpoint as log
// records, so existing collector pipelines see the same traffic the
// platform scores.
package otlp

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/elastic/metricat/internal/watch"
)

// Client sends interaction records to an OTLP endpoint
type Client struct {
	provider *sdklog.LoggerProvider
	logger   log.Logger
	endpoint string
}

// Config holds OTLP client configuration
type Config struct {
	Endpoint    string // OTLP HTTP endpoint (default: localhost:4318)
	ServiceName string // Resource-level service name
	Insecure    bool   // Use HTTP instead of HTTPS
}

// New creates a new OTLP client
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4318"
	}

	ctx := context.Background()

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	var attrs []attribute.KeyValue
	if cfg.ServiceName != "" {
		attrs = append(attrs, semconv.ServiceName(cfg.ServiceName))
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, attrs...)

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	logger := provider.Logger("metricat")

	return &Client{
		provider: provider,
		logger:   logger,
		endpoint: cfg.Endpoint,
	}, nil
}

// SendInteraction emits one imported interaction as an OTLP log record.
// The interaction's input becomes the record body; the exchange details
// ride as attributes.
func (c *Client) SendInteraction(ctx context.Context, in watch.Interaction) {
	var record log.Record

	record.SetTimestamp(in.Timestamp)
	record.SetObservedTimestamp(time.Now())
	record.SetSeverity(log.SeverityInfo)
	record.SetSeverityText("INFO")
	record.SetBody(log.StringValue(in.Input))

	record.AddAttributes(
		log.String("gen_ai.session.id", in.Session),
		log.String("gen_ai.completion", in.Output),
		log.String("log.source", in.Source),
	)
	if in.Model != "" {
		record.AddAttributes(log.String("gen_ai.request.model", in.Model))
	}
	if in.InputTokens > 0 {
		record.AddAttributes(log.Int("gen_ai.usage.input_tokens", in.InputTokens))
	}
	if in.OutputTokens > 0 {
		record.AddAttributes(log.Int("gen_ai.usage.output_tokens", in.OutputTokens))
	}

	for k, v := range in.Attributes {
		switch val := v.(type) {
		case string:
			record.AddAttributes(log.String(k, val))
		case float64:
			record.AddAttributes(log.Float64(k, val))
		case bool:
			record.AddAttributes(log.Bool(k, val))
		case int:
			record.AddAttributes(log.Int(k, val))
		case int64:
			record.AddAttributes(log.Int64(k, val))
		}
	}

	c.logger.Emit(ctx, record)
}

// Close shuts down the OTLP client
func (c *Client) Close(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}
