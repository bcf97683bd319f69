package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: ErrMissingServiceName},
		{name: "missing version", mutate: func(c *Config) { c.ServiceVersion = "" }, wantErr: ErrMissingServiceVersion},
		{name: "negative sample rate", mutate: func(c *Config) { c.SampleRate = -0.1 }, wantErr: ErrInvalidSampleRate},
		{name: "sample rate above one", mutate: func(c *Config) { c.SampleRate = 1.5 }, wantErr: ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected %v wrapped in ErrInvalidConfig, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.ServiceName = ""

		tel, err := Initialize(context.Background(), cfg)

		if err == nil || tel != nil {
			t.Fatalf("expected error and nil telemetry, got %v, %v", tel, err)
		}
	})

	t.Run("installs only the enabled providers", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableTracing = true

		tel := initialize(t, cfg, WithTraceExporter(DiscardSpanExporter()))

		if tel.TracerProvider() == nil {
			t.Error("expected tracer provider")
		}
		if tel.MeterProvider() != nil {
			t.Error("expected no meter provider")
		}
		if tel.Meter("test") == nil {
			t.Error("expected fallback meter when metrics are disabled")
		}
	})

	t.Run("discards signals without an endpoint", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableTracing = true
		cfg.EnableMetrics = true

		tel := initialize(t, cfg)

		if tel.TracerProvider() == nil || tel.MeterProvider() == nil {
			t.Fatal("expected both providers")
		}
		if _, ok := tel.traceExporter.(discardSpanExporter); !ok {
			t.Errorf("expected discard span exporter, got %T", tel.traceExporter)
		}
		if _, ok := tel.metricExporter.(discardMetricExporter); !ok {
			t.Errorf("expected discard metric exporter, got %T", tel.metricExporter)
		}

		ctx, span := StartSpan(context.Background(), "local")
		defer span.End()
		if TraceID(ctx) == "" {
			t.Error("expected spans to carry a trace id")
		}
	})
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: 0, want: sdktrace.NeverSample().Description()},
		{rate: 1, want: sdktrace.AlwaysSample().Description()},
		{rate: 0.5, want: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}

	for _, tt := range tests {
		if got := createSampler(tt.rate).Description(); got != tt.want {
			t.Errorf("createSampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

type countingSpanExporter struct {
	discardSpanExporter
	shutdowns int
}

func (e *countingSpanExporter) Shutdown(context.Context) error {
	e.shutdowns++
	return nil
}

type countingMetricExporter struct {
	discardMetricExporter
	shutdowns int
}

func (e *countingMetricExporter) Shutdown(context.Context) error {
	e.shutdowns++
	return nil
}

func TestShutdownStopsEachExporterOnce(t *testing.T) {
	prevTracer, prevMeter := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTracer)
		otel.SetMeterProvider(prevMeter)
	})

	spans := &countingSpanExporter{}
	metrics := &countingMetricExporter{}
	cfg := testConfig()
	cfg.EnableTracing = true
	cfg.EnableMetrics = true

	tel, err := Initialize(context.Background(), cfg, WithTraceExporter(spans), WithMetricExporter(metrics))
	if err != nil {
		t.Fatalf("failed to initialize telemetry: %v", err)
	}

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if spans.shutdowns != 1 {
		t.Errorf("expected span exporter to stop once, got %d", spans.shutdowns)
	}
	if metrics.shutdowns != 1 {
		t.Errorf("expected metric exporter to stop once, got %d", metrics.shutdowns)
	}
}

func TestShutdownWithoutProviders(t *testing.T) {
	tel := &Telemetry{}

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
