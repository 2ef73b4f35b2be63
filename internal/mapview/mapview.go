// Package mapview derives the map layers served to clients: heatmap points,
// per-sample markers as GeoJSON and the map header counters.
package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"greenleaf/pkg/domain"
)

// Marker colors keyed by affected area.
const (
	ColorLow    = "#28a745"
	ColorMedium = "#ffc107"
	ColorHigh   = "#dc3545"
)

// Point is a heatmap entry: latitude, longitude and a 0-1 weight.
type Point [3]float64

// located reports whether the sample carries usable coordinates. Zero is
// treated as unset, matching what map clients plot.
func located(s domain.Sample) bool {
	l := s.Location
	return l.Latitude != nil && l.Longitude != nil && *l.Latitude != 0 && *l.Longitude != 0
}

func affectedArea(s domain.Sample) float64 {
	if s.Analysis.AffectedArea == nil {
		return 0
	}
	return *s.Analysis.AffectedArea
}

// Heatmap returns one point per located sample with a non-zero affected
// area, weighted by area/100.
func Heatmap(samples []domain.Sample) []Point {
	out := make([]Point, 0, len(samples))
	for _, s := range samples {
		area := affectedArea(s)
		if !located(s) || area == 0 {
			continue
		}
		out = append(out, Point{*s.Location.Latitude, *s.Location.Longitude, area / 100})
	}
	return out
}

// MarkerColor buckets the affected area into the three marker colors.
func MarkerColor(area float64) string {
	switch {
	case area > 60:
		return ColorHigh
	case area > 30:
		return ColorMedium
	default:
		return ColorLow
	}
}

// FeatureCollection renders every located sample as a GeoJSON point with the
// popup fields as properties.
func FeatureCollection(samples []domain.Sample) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range samples {
		if !located(s) {
			continue
		}
		f := geojson.NewFeature(orb.Point{*s.Location.Longitude, *s.Location.Latitude})
		f.ID = s.ID
		area := affectedArea(s)
		props := geojson.Properties{
			"codigo_amostra":           s.Code,
			"especie":                  s.Species,
			"variedade":                s.Variety,
			"municipio":                s.Location.Municipality,
			"estado":                   s.Location.State,
			"bacteria_detectada":       s.Analysis.Organism,
			"grau_infeccao":            s.Analysis.Severity,
			"porcentagem_area_afetada": area,
			"marker_color":             MarkerColor(area),
		}
		if s.CollectedAt != nil && !s.CollectedAt.IsZero() {
			props["data_coleta"] = s.CollectedAt.UTC().Format("2006-01-02")
		}
		if s.Analysis.Confidence != nil {
			props["confiabilidade_modelo"] = *s.Analysis.Confidence
		}
		if s.OriginalImage != "" {
			props["imagem_original"] = s.OriginalImage
		}
		f.Properties = props
		fc.Append(f)
	}
	return fc
}

// Summary holds the counters shown above the map.
type Summary struct {
	TotalSamples     int     `json:"totalSamples"`
	AffectedSamples  int     `json:"affectedSamples"`
	AverageInfection float64 `json:"averageInfection"`
}

// Summarize counts samples with a positive affected area and averages the
// area over all samples (missing counts as zero), rounded to two decimals.
func Summarize(samples []domain.Sample) Summary {
	out := Summary{TotalSamples: len(samples)}
	if len(samples) == 0 {
		return out
	}
	var sum float64
	for _, s := range samples {
		area := affectedArea(s)
		if area > 0 {
			out.AffectedSamples++
		}
		sum += area
	}
	out.AverageInfection = math.Round(sum/float64(len(samples))*100) / 100
	return out
}
