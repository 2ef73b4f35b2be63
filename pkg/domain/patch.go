package domain

// SamplePatch carries a partial update. Nil fields are left untouched, so a
// patch can set values but never clear them; full replacement does that.
type SamplePatch struct {
	Code          *string        `json:"codigo_amostra"`
	Species       *string        `json:"especie"`
	Variety       *string        `json:"variedade"`
	CollectedAt   *Date          `json:"data_coleta"`
	CollectedBy   *string        `json:"coletado_por"`
	OriginalImage *string        `json:"imagem_original"`
	Location      *LocationPatch `json:"localizacao"`
	Analysis      *AnalysisPatch `json:"analise"`
}

// LocationPatch is the partial form of Location.
type LocationPatch struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Municipality *string  `json:"municipio"`
	State        *string  `json:"estado"`
}

// AnalysisPatch is the partial form of Analysis.
type AnalysisPatch struct {
	Organism       *string  `json:"bacteria_detectada"`
	Severity       *string  `json:"grau_infeccao"`
	AffectedArea   *float64 `json:"porcentagem_area_afetada"`
	Confidence     *float64 `json:"confiabilidade_modelo"`
	SegmentedImage *string  `json:"imagem_segmentada"`
	AnalyzedAt     *Date    `json:"data_analise"`
}

// Apply merges the patch into a copy of s and returns it.
func (p SamplePatch) Apply(s Sample) Sample {
	out := s.Clone()
	setString(&out.Code, p.Code)
	setString(&out.Species, p.Species)
	setString(&out.Variety, p.Variety)
	setString(&out.CollectedBy, p.CollectedBy)
	setString(&out.OriginalImage, p.OriginalImage)
	if p.CollectedAt != nil {
		out.CollectedAt = cloneDate(p.CollectedAt)
	}
	if l := p.Location; l != nil {
		if l.Latitude != nil {
			out.Location.Latitude = cloneFloat(l.Latitude)
		}
		if l.Longitude != nil {
			out.Location.Longitude = cloneFloat(l.Longitude)
		}
		setString(&out.Location.Municipality, l.Municipality)
		setString(&out.Location.State, l.State)
	}
	if a := p.Analysis; a != nil {
		setString(&out.Analysis.Organism, a.Organism)
		setString(&out.Analysis.Severity, a.Severity)
		setString(&out.Analysis.SegmentedImage, a.SegmentedImage)
		if a.AffectedArea != nil {
			out.Analysis.AffectedArea = cloneFloat(a.AffectedArea)
		}
		if a.Confidence != nil {
			out.Analysis.Confidence = cloneFloat(a.Confidence)
		}
		if a.AnalyzedAt != nil {
			out.Analysis.AnalyzedAt = cloneDate(a.AnalyzedAt)
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
