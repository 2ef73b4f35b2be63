// Package domain defines the leaf sample record, its embedded analysis and
// the persistence contract shared by every storage backend.
package domain

// Default values applied when a caller omits them.
const (
	DefaultSpecies  = "Manihot esculenta"
	DefaultOrganism = "Xanthomonas phaseoli"
)

// Infection severity labels produced by the analysis generator. Manual edits
// may store any free-text label.
const (
	SeverityMild     = "Leve"
	SeverityModerate = "Moderada"
	SeveritySevere   = "Grave"
)

// Severities lists the generated severity labels in ascending order.
var Severities = []string{SeverityMild, SeverityModerate, SeveritySevere}

// Sample is one leaf collection record. The analysis is always embedded in
// the document; there is no separate analysis entity.
type Sample struct {
	ID            string   `json:"_id"`
	Code          string   `json:"codigo_amostra"`
	Species       string   `json:"especie"`
	Variety       string   `json:"variedade"`
	CollectedAt   *Date    `json:"data_coleta"`
	CollectedBy   string   `json:"coletado_por"`
	OriginalImage string   `json:"imagem_original"`
	Location      Location `json:"localizacao"`
	Analysis      Analysis `json:"analise"`
}

// Location holds the optional geographic data captured with a sample.
type Location struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Municipality string   `json:"municipio"`
	State        string   `json:"estado"`
}

// Analysis is the classification result attached to a sample.
type Analysis struct {
	Organism       string   `json:"bacteria_detectada"`
	Severity       string   `json:"grau_infeccao"`
	AffectedArea   *float64 `json:"porcentagem_area_afetada"`
	Confidence     *float64 `json:"confiabilidade_modelo"`
	SegmentedImage string   `json:"imagem_segmentada"`
	AnalyzedAt     *Date    `json:"data_analise"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// ApplyCreateDefaults fills the defaults a freshly created sample receives.
func (s *Sample) ApplyCreateDefaults() {
	if s.Species == "" {
		s.Species = DefaultSpecies
	}
	if s.Analysis.Organism == "" {
		s.Analysis.Organism = DefaultOrganism
	}
}

// Clone returns a deep copy of the sample so callers never share pointers
// with stored state.
func (s Sample) Clone() Sample {
	out := s
	out.CollectedAt = cloneDate(s.CollectedAt)
	out.Location.Latitude = cloneFloat(s.Location.Latitude)
	out.Location.Longitude = cloneFloat(s.Location.Longitude)
	out.Analysis = s.Analysis.Clone()
	return out
}

// Clone returns a deep copy of the analysis.
func (a Analysis) Clone() Analysis {
	out := a
	out.AffectedArea = cloneFloat(a.AffectedArea)
	out.Confidence = cloneFloat(a.Confidence)
	out.AnalyzedAt = cloneDate(a.AnalyzedAt)
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
