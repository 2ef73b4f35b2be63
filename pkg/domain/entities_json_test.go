package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSampleUnmarshalAcceptsDateInput(t *testing.T) {
	payload := `{
		"codigo_amostra": "AM-001",
		"data_coleta": "2025-03-14",
		"coletado_por": "Ana",
		"localizacao": {"latitude": -22.9, "longitude": -47.06, "municipio": "Campinas", "estado": "SP"},
		"analise": {"grau_infeccao": "Leve", "confiabilidade_modelo": 91.5, "data_analise": "2025-03-15T10:30:00Z"}
	}`
	var sample Sample
	if err := json.Unmarshal([]byte(payload), &sample); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if sample.CollectedAt == nil {
		t.Fatalf("expected collection date to be set")
	}
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !sample.CollectedAt.Equal(want) {
		t.Fatalf("unexpected collection date: %v", sample.CollectedAt.Time)
	}
	if sample.Location.Latitude == nil || *sample.Location.Latitude != -22.9 {
		t.Fatalf("unexpected latitude: %v", sample.Location.Latitude)
	}
	if sample.Analysis.AffectedArea != nil {
		t.Fatalf("expected missing affected area to stay nil")
	}
	if sample.Analysis.Confidence == nil || *sample.Analysis.Confidence != 91.5 {
		t.Fatalf("unexpected confidence: %v", sample.Analysis.Confidence)
	}
}

func TestSampleMarshalUsesDocumentFieldNames(t *testing.T) {
	sample := Sample{
		ID:          "6523f1a2b3c4d5e6f7a8b9c0",
		Code:        "AM-002",
		CollectedAt: NewDate(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
	}
	data, err := json.Marshal(sample)
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	body := string(data)
	for _, key := range []string{`"_id"`, `"codigo_amostra"`, `"data_coleta":"2025-01-02T00:00:00Z"`, `"analise"`, `"localizacao"`, `"confiabilidade_modelo":null`} {
		if !strings.Contains(body, key) {
			t.Fatalf("expected %s in %s", key, body)
		}
	}
}

func TestDateRejectsGarbage(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"yesterday"`), &d); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
	if err := json.Unmarshal([]byte(`""`), &d); err != nil {
		t.Fatalf("empty string should clear date: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("expected zero date")
	}
}

func TestSampleCloneIsDeep(t *testing.T) {
	original := Sample{
		CollectedAt: NewDate(time.Now()),
		Location:    Location{Latitude: Float(1), Longitude: Float(2)},
		Analysis:    Analysis{Confidence: Float(90), AffectedArea: Float(10)},
	}
	clone := original.Clone()
	*clone.Location.Latitude = 5
	*clone.Analysis.Confidence = 50
	clone.CollectedAt.Time = time.Time{}
	if *original.Location.Latitude != 1 || *original.Analysis.Confidence != 90 || original.CollectedAt.IsZero() {
		t.Fatalf("clone shares state with original")
	}
}

func TestApplyCreateDefaults(t *testing.T) {
	var s Sample
	s.ApplyCreateDefaults()
	if s.Species != DefaultSpecies {
		t.Fatalf("expected default species, got %q", s.Species)
	}
	if s.Analysis.Organism != DefaultOrganism {
		t.Fatalf("expected default organism, got %q", s.Analysis.Organism)
	}
	s = Sample{Species: "Phaseolus vulgaris"}
	s.ApplyCreateDefaults()
	if s.Species != "Phaseolus vulgaris" {
		t.Fatalf("caller species overwritten: %q", s.Species)
	}
}
