package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenleaf/pkg/domain"
)

// sampleDocument is the BSON shape of a stored sample. Field names match the
// JSON wire names so documents written by other clients load unchanged.
type sampleDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Code          string             `bson:"codigo_amostra"`
	Species       string             `bson:"especie"`
	Variety       string             `bson:"variedade,omitempty"`
	CollectedAt   *time.Time         `bson:"data_coleta,omitempty"`
	CollectedBy   string             `bson:"coletado_por"`
	OriginalImage string             `bson:"imagem_original,omitempty"`
	Location      locationDocument   `bson:"localizacao"`
	Analysis      analysisDocument   `bson:"analise"`
}

type locationDocument struct {
	Latitude     *float64 `bson:"latitude,omitempty"`
	Longitude    *float64 `bson:"longitude,omitempty"`
	Municipality string   `bson:"municipio,omitempty"`
	State        string   `bson:"estado,omitempty"`
}

type analysisDocument struct {
	Organism       string     `bson:"bacteria_detectada"`
	Severity       string     `bson:"grau_infeccao,omitempty"`
	AffectedArea   *float64   `bson:"porcentagem_area_afetada,omitempty"`
	Confidence     *float64   `bson:"confiabilidade_modelo,omitempty"`
	SegmentedImage string     `bson:"imagem_segmentada,omitempty"`
	AnalyzedAt     *time.Time `bson:"data_analise,omitempty"`
}

func toDocument(s domain.Sample) sampleDocument {
	doc := sampleDocument{
		Code:          s.Code,
		Species:       s.Species,
		Variety:       s.Variety,
		CollectedAt:   toTime(s.CollectedAt),
		CollectedBy:   s.CollectedBy,
		OriginalImage: s.OriginalImage,
		Location: locationDocument{
			Latitude:     s.Location.Latitude,
			Longitude:    s.Location.Longitude,
			Municipality: s.Location.Municipality,
			State:        s.Location.State,
		},
		Analysis: analysisDocument{
			Organism:       s.Analysis.Organism,
			Severity:       s.Analysis.Severity,
			AffectedArea:   s.Analysis.AffectedArea,
			Confidence:     s.Analysis.Confidence,
			SegmentedImage: s.Analysis.SegmentedImage,
			AnalyzedAt:     toTime(s.Analysis.AnalyzedAt),
		},
	}
	if oid, err := primitive.ObjectIDFromHex(s.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d sampleDocument) toDomain() domain.Sample {
	s := domain.Sample{
		Code:          d.Code,
		Species:       d.Species,
		Variety:       d.Variety,
		CollectedAt:   fromTime(d.CollectedAt),
		CollectedBy:   d.CollectedBy,
		OriginalImage: d.OriginalImage,
		Location: domain.Location{
			Latitude:     d.Location.Latitude,
			Longitude:    d.Location.Longitude,
			Municipality: d.Location.Municipality,
			State:        d.Location.State,
		},
		Analysis: domain.Analysis{
			Organism:       d.Analysis.Organism,
			Severity:       d.Analysis.Severity,
			AffectedArea:   d.Analysis.AffectedArea,
			Confidence:     d.Analysis.Confidence,
			SegmentedImage: d.Analysis.SegmentedImage,
			AnalyzedAt:     fromTime(d.Analysis.AnalyzedAt),
		},
	}
	if !d.ID.IsZero() {
		s.ID = d.ID.Hex()
	}
	return s
}

func toTime(d *domain.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.UTC()
	return &t
}

func fromTime(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	return domain.NewDate(t.UTC())
}
