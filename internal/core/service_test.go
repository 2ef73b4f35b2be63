package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"greenleaf/internal/analysis"
	"greenleaf/internal/blob"
	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

func TestCreateThenListIncludesNewSample(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	input := domain.Sample{
		Code:        "AM-001",
		Variety:     "BRS Kiriris",
		CollectedAt: domain.NewDate(fixedNow),
		CollectedBy: "Ana",
		Location:    domain.Location{State: "BA", Municipality: "Cruz das Almas"},
		Analysis:    domain.Analysis{Severity: "ignored"},
	}
	created, err := svc.CreateSample(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !domain.ValidID(created.ID) {
		t.Fatalf("expected ObjectID-shaped id, got %q", created.ID)
	}
	if created.Species != domain.DefaultSpecies {
		t.Fatalf("expected default species, got %q", created.Species)
	}
	if created.Analysis.Severity != domain.SeverityModerate {
		t.Fatalf("expected analyzer result to replace input analysis, got %+v", created.Analysis)
	}

	list, err := svc.ListSamples(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID || list[0].Code != "AM-001" || list[0].CollectedBy != "Ana" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestCreateWithRandomAnalyzerStaysInRange(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(WithAnalyzer(analysis.NewRandomAnalyzer()))
	for range 20 {
		created, err := svc.CreateSample(ctx, domain.Sample{Code: "R"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		a := created.Analysis
		if *a.AffectedArea < 0 || *a.AffectedArea > 100 || *a.Confidence < 80 || *a.Confidence > 100 {
			t.Fatalf("analysis out of range: %+v", a)
		}
	}
}

func TestCreateAnalyzerFailure(t *testing.T) {
	boom := errors.New("model offline")
	svc := newTestService(WithAnalyzer(analysis.FixedAnalyzer{Err: boom}))
	if _, err := svc.CreateSample(context.Background(), domain.Sample{}); !errors.Is(err, boom) {
		t.Fatalf("expected analyzer error, got %v", err)
	}
	list, _ := svc.ListSamples(context.Background())
	if len(list) != 0 {
		t.Fatalf("nothing should be stored when analysis fails")
	}
}

func TestGetDistinguishesInvalidAndMissing(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.GetSample(ctx, domain.NewID()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetSample(ctx, "not-an-id"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestReplaceOverwritesOmittedFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	created, err := svc.CreateSample(ctx, domain.Sample{
		Code:     "AM-2",
		Variety:  "Verdinha",
		Location: domain.Location{Latitude: domain.Float(-12.6), Longitude: domain.Float(-39.1), State: "BA"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	replaced, err := svc.ReplaceSample(ctx, created.ID, domain.Sample{Code: "AM-2b"})
	if err != nil || replaced == nil {
		t.Fatalf("replace: %v %v", replaced, err)
	}
	got, _ := svc.GetSample(ctx, created.ID)
	if got.Code != "AM-2b" || got.Variety != "" || got.Species != "" || got.Location.Latitude != nil || got.Analysis.Confidence != nil {
		t.Fatalf("expected omitted fields to be cleared, got %+v", got)
	}

	absent, err := svc.ReplaceSample(ctx, domain.NewID(), domain.Sample{Code: "x"})
	if err != nil || absent != nil {
		t.Fatalf("expected nil sample for absent id, got %v %v", absent, err)
	}
}

func TestPatchMergesFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	created, _ := svc.CreateSample(ctx, domain.Sample{Code: "AM-3", CollectedBy: "Rui", Location: domain.Location{State: "BA"}})

	state := "SE"
	severity := domain.SeveritySevere
	patched, err := svc.PatchSample(ctx, created.ID, domain.SamplePatch{
		Location: &domain.LocationPatch{State: &state},
		Analysis: &domain.AnalysisPatch{Severity: &severity},
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Code != "AM-3" || patched.CollectedBy != "Rui" || patched.Location.State != "SE" {
		t.Fatalf("unexpected merge %+v", patched)
	}
	if patched.Analysis.Severity != domain.SeveritySevere || patched.Analysis.Confidence == nil {
		t.Fatalf("expected analysis merged field by field, got %+v", patched.Analysis)
	}

	if _, err := svc.PatchSample(ctx, domain.NewID(), domain.SamplePatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent id, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	created, _ := svc.CreateSample(ctx, domain.Sample{Code: "AM-4"})
	for i := 0; i < 2; i++ {
		if err := svc.DeleteSample(ctx, created.ID); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	if err := svc.DeleteSample(ctx, "xyz"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestAttachImage(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	svc := newTestService(WithBlobStore(blobs))
	created, _ := svc.CreateSample(ctx, domain.Sample{Code: "AM-5"})

	updated, err := svc.AttachImage(ctx, created.ID, Upload{Filename: "leaf.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	prefix := "/files/images/" + created.ID + "/"
	if !strings.HasPrefix(updated.OriginalImage, prefix) || !strings.HasSuffix(updated.OriginalImage, ".jpg") {
		t.Fatalf("unexpected image url %q", updated.OriginalImage)
	}
	stored, _ := blobs.List(ctx, "images/"+created.ID+"/")
	if len(stored) != 1 || stored[0].Metadata["sample_id"] != created.ID {
		t.Fatalf("expected one stored image, got %+v", stored)
	}

	if _, err := svc.AttachImage(ctx, created.ID, Upload{ContentType: "text/plain", Body: strings.NewReader("x")}); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if _, err := svc.AttachImage(ctx, domain.NewID(), Upload{ContentType: "image/png", Body: strings.NewReader("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := newTestService().AttachImage(ctx, created.ID, Upload{ContentType: "image/png"}); !errors.Is(err, ErrNoBlobStore) {
		t.Fatalf("expected ErrNoBlobStore, got %v", err)
	}
}

func TestDashboardAndMap(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.CreateSample(ctx, domain.Sample{
		Code:        "AM-6",
		CollectedAt: domain.NewDate(fixedNow),
		Location:    domain.Location{Latitude: domain.Float(-12.5), Longitude: domain.Float(-39.0), State: "BA"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateSample(ctx, domain.Sample{Code: "AM-7"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	dash, err := svc.Dashboard(ctx, stats.PeriodWeek)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Stats.Total != 1 || dash.Insights.TopState != "BA" {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	overview, err := svc.MapOverview(ctx)
	if err != nil {
		t.Fatalf("map overview: %v", err)
	}
	if len(overview.Points) != 1 || overview.Summary.TotalSamples != 2 {
		t.Fatalf("unexpected overview %+v", overview)
	}
	fc, err := svc.MapFeatures(ctx)
	if err != nil || len(fc.Features) != 1 {
		t.Fatalf("unexpected features %v %v", fc, err)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(failingStore{err: boom}, WithAnalyzer(fixedAnalysis()))
	ctx := context.Background()
	if _, err := svc.ListSamples(ctx); !errors.Is(err, boom) {
		t.Fatalf("list: expected %v, got %v", boom, err)
	}
	if _, err := svc.Dashboard(ctx, stats.PeriodAll); !errors.Is(err, boom) {
		t.Fatalf("dashboard: expected %v, got %v", boom, err)
	}
	if IsClientError(boom) {
		t.Fatalf("backend error must not be classified as client error")
	}
}
