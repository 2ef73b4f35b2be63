package core

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"greenleaf/pkg/domain"
)

func TestServiceObservability(t *testing.T) {
	ctx := WithActor(context.Background(), "operator")
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	var traceBuf bytes.Buffer
	tracer := NewJSONTracer(&traceBuf)
	core, logs := observer.New(zap.DebugLevel)

	svc := newTestService(
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(zap.New(core)),
	)

	created, err := svc.CreateSample(ctx, domain.Sample{Code: "AM-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !audit.has(OpCreateSample, AuditStatusSuccess, func(e AuditEntry) bool {
		return e.SampleID == created.ID && e.Actor == "operator"
	}) {
		t.Fatalf("expected audit entry for create_sample success, got %+v", audit.entries)
	}
	if _, err := svc.GetSample(ctx, "bad"); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if err := svc.DeleteSample(ctx, "bad"); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if !audit.has(OpDeleteSample, AuditStatusError, nil) {
		t.Fatalf("expected audit entry for failed delete")
	}
	if audit.has(OpGetSample, AuditStatusError, nil) {
		t.Fatalf("reads must not be audited")
	}

	if !metrics.has(OpCreateSample, true) || !metrics.has(OpGetSample, false) {
		t.Fatalf("unexpected metrics calls %+v", metrics.calls)
	}

	entries := tracer.Entries()
	if len(entries) != 3 || entries[0].Operation != OpCreateSample || entries[1].Status != "error" {
		t.Fatalf("unexpected spans %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(traceBuf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 json trace lines, got %d", len(lines))
	}
	var first JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Status != "success" {
		t.Fatalf("decode trace line: %v %+v", err, first)
	}

	if logs.FilterMessage("sample operation succeeded").FilterField(zap.String("sample_id", created.ID)).Len() != 1 {
		t.Fatalf("expected success log for created sample, got %v", logs.All())
	}
	if logs.FilterMessage("sample operation rejected").Len() != 2 {
		t.Fatalf("expected client errors logged as rejected, got %v", logs.All())
	}
	if logs.FilterLevelExact(zap.ErrorLevel).Len() != 0 {
		t.Fatalf("client errors must not log at error level")
	}
}

func TestServiceLogsReadsAtInfo(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.InfoLevel)
	svc := newTestService(WithLogger(zap.New(core)))

	created, err := svc.CreateSample(ctx, domain.Sample{Code: "AM-2"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ListSamples(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.GetSample(ctx, created.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	for _, op := range []string{OpCreateSample, OpListSamples, OpGetSample} {
		got := logs.FilterMessage("sample operation succeeded").FilterField(zap.String("operation", op))
		if got.Len() != 1 {
			t.Fatalf("expected one info line for %s, got %v", op, logs.All())
		}
	}
}

func TestLogAuditRecorder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := NewLogAuditRecorder(zap.New(core))
	rec.Record(context.Background(), AuditEntry{Operation: OpDeleteSample, SampleID: "abc", Status: AuditStatusError, Error: "boom"})
	entries := logs.All()
	if len(entries) != 1 || entries[0].LoggerName != "audit" {
		t.Fatalf("unexpected audit logs %+v", entries)
	}
	fields := entries[0].ContextMap()
	if fields["sample_id"] != "abc" || fields["error"] != "boom" || fields["status"] != "error" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	NewLogAuditRecorder(nil).Record(context.Background(), AuditEntry{})
}

func TestNoopDefaults(t *testing.T) {
	svc := NewService(nil)
	if svc.metrics == nil || svc.tracer == nil || svc.audit == nil || svc.logger == nil || svc.analyzer == nil {
		t.Fatalf("expected defaults to be populated")
	}
	if ActorFrom(context.Background()) != "" {
		t.Fatalf("expected empty actor")
	}
}
