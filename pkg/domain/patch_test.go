package domain

import (
	"encoding/json"
	"testing"
)

func TestPatchMergesProvidedFieldsOnly(t *testing.T) {
	current := Sample{
		ID:          "6523f1a2b3c4d5e6f7a8b9c0",
		Code:        "AM-010",
		Species:     DefaultSpecies,
		Variety:     "IAC 90",
		CollectedBy: "Bruno",
		Location:    Location{Latitude: Float(-10), Longitude: Float(-50), State: "GO"},
		Analysis:    Analysis{Organism: DefaultOrganism, Severity: SeverityMild, Confidence: Float(88)},
	}
	var patch SamplePatch
	body := `{"variedade": "BRS Kiriris", "localizacao": {"estado": "BA"}, "analise": {"grau_infeccao": "Grave"}}`
	if err := json.Unmarshal([]byte(body), &patch); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	got := patch.Apply(current)

	if got.Variety != "BRS Kiriris" || got.Location.State != "BA" || got.Analysis.Severity != SeveritySevere {
		t.Fatalf("patch fields not applied: %+v", got)
	}
	if got.Code != "AM-010" || got.CollectedBy != "Bruno" || got.ID != current.ID {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.Location.Latitude == nil || *got.Location.Latitude != -10 {
		t.Fatalf("latitude lost in merge")
	}
	if got.Analysis.Confidence == nil || *got.Analysis.Confidence != 88 {
		t.Fatalf("confidence lost in merge")
	}
	if current.Variety != "IAC 90" {
		t.Fatalf("apply mutated its input")
	}
}
