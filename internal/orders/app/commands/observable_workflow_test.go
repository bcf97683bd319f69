package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dejobratic/orderflow/internal/orders/app/commands"
	"github.com/dejobratic/orderflow/internal/orders/metrics"
)

func setupObservable(t *testing.T, m *mockAgents) (*commands.ObservableWorkflow, *tracetest.InMemoryExporter, *sdkmetric.ManualReader) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	workflowMetrics, err := metrics.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return commands.NewObservableWorkflow(newHandler(m), logger, workflowMetrics), exporter, reader
}

func TestObservableWorkflowRecordsSpans(t *testing.T) {
	observable, exporter, _ := setupObservable(t, &mockAgents{})
	ctx := context.Background()

	if err := observable.CreateOrder(ctx, commands.CreateOrderCommand{OrderID: 4821, Customer: "Customer 3"}); err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}
	if err := observable.ProcessPayment(ctx, validPayment()); err != nil {
		t.Fatalf("ProcessPayment() failed: %v", err)
	}
	if err := observable.ShipOrder(ctx, commands.ShipOrderCommand{OrderID: 4821}); err != nil {
		t.Fatalf("ShipOrder() failed: %v", err)
	}

	spans := exporter.GetSpans()
	want := []string{"Workflow.CreateOrder", "Workflow.ProcessPayment", "Workflow.ShipOrder"}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(spans))
	}
	for i, name := range want {
		if spans[i].Name != name {
			t.Errorf("span %d: expected %s, got %s", i, name, spans[i].Name)
		}
		if spans[i].Status.Code != codes.Ok {
			t.Errorf("span %s: expected Ok status, got %v", name, spans[i].Status.Code)
		}
	}
}

func TestObservableWorkflowRecordsFailure(t *testing.T) {
	boom := errors.New("card declined")
	observable, exporter, reader := setupObservable(t, &mockAgents{paymentErr: boom})

	err := observable.ProcessPayment(context.Background(), validPayment())
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected Error status, got %v", spans[0].Status.Code)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "workflow_action_duration_seconds" {
				continue
			}
			found = true
			histogram, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatal("Expected Histogram[float64] data type")
			}
			if len(histogram.DataPoints) != 1 || histogram.DataPoints[0].Count != 1 {
				t.Errorf("expected a single recorded action, got %+v", histogram.DataPoints)
			}
		}
	}
	if !found {
		t.Error("workflow_action_duration_seconds metric not found")
	}
}
