package stats

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SeverityClass buckets free-text severity labels for colouring.
type SeverityClass string

const (
	ClassLight    SeverityClass = "light"
	ClassModerate SeverityClass = "moderate"
	ClassSevere   SeverityClass = "severe"
	ClassUnknown  SeverityClass = "unknown"
)

var severityAliases = map[string]SeverityClass{
	"leve": ClassLight, "baixo": ClassLight, "baixa": ClassLight, "minimo": ClassLight, "minima": ClassLight,
	"moderado": ClassModerate, "moderada": ClassModerate, "medio": ClassModerate, "media": ClassModerate,
	"grave": ClassSevere, "severo": ClassSevere, "severa": ClassSevere, "alto": ClassSevere,
	"alta": ClassSevere, "critico": ClassSevere, "critica": ClassSevere,
}

// ClassifySeverity maps a severity label to its class, ignoring case and
// accents. Unrecognised labels are ClassUnknown.
func ClassifySeverity(label string) SeverityClass {
	if class, ok := severityAliases[foldLabel(label)]; ok {
		return class
	}
	return ClassUnknown
}

// Color returns the badge colour of the class.
func (c SeverityClass) Color() string {
	switch c {
	case ClassLight:
		return "#28a745"
	case ClassModerate:
		return "#ffc107"
	case ClassSevere:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

func foldLabel(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, label)
	if err != nil {
		folded = label
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
