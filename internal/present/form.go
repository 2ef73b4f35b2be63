// Package present renders samples and dashboards for terminals and mirrors
// the data-entry form rules used by interactive clients.
package present

import (
	"errors"
	"fmt"
	"strings"

	"greenleaf/pkg/domain"
)

// ErrIncompleteForm marks a sample missing a required form field.
var ErrIncompleteForm = errors.New("incomplete sample form")

// FieldError names the missing fields of a form.
type FieldError struct {
	Missing []string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrIncompleteForm, strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is match ErrIncompleteForm.
func (e *FieldError) Unwrap() error { return ErrIncompleteForm }

type fieldRule struct {
	name    string
	present func(domain.Sample) bool
}

var (
	ruleCode        = fieldRule{"codigo_amostra", func(s domain.Sample) bool { return filled(s.Code) }}
	ruleSpecies     = fieldRule{"especie", func(s domain.Sample) bool { return filled(s.Species) }}
	ruleVariety     = fieldRule{"variedade", func(s domain.Sample) bool { return filled(s.Variety) }}
	ruleCollectedAt = fieldRule{"data_coleta", func(s domain.Sample) bool { return dateSet(s.CollectedAt) }}
	ruleCollectedBy = fieldRule{"coletado_por", func(s domain.Sample) bool { return filled(s.CollectedBy) }}
)

// createRules follow the entry form: species is pre-filled there and not
// checked.
var createRules = []fieldRule{ruleCode, ruleVariety, ruleCollectedBy, ruleCollectedAt}

// updateRules follow the edit form, which also requires the location names
// and every analysis field.
var updateRules = []fieldRule{
	ruleCode,
	ruleSpecies,
	ruleVariety,
	ruleCollectedAt,
	ruleCollectedBy,
	{"municipio", func(s domain.Sample) bool { return filled(s.Location.Municipality) }},
	{"estado", func(s domain.Sample) bool { return filled(s.Location.State) }},
	{"grau_infeccao", func(s domain.Sample) bool { return filled(s.Analysis.Severity) }},
	{"bacteria_detectada", func(s domain.Sample) bool { return filled(s.Analysis.Organism) }},
	{"porcentagem_area_afetada", func(s domain.Sample) bool { return s.Analysis.AffectedArea != nil }},
	{"confiabilidade_modelo", func(s domain.Sample) bool { return s.Analysis.Confidence != nil }},
	{"data_analise", func(s domain.Sample) bool { return dateSet(s.Analysis.AnalyzedAt) }},
}

// CreateFields lists the JSON names the entry form requires.
var CreateFields = names(createRules)

// UpdateFields lists the JSON names the edit form requires.
var UpdateFields = names(updateRules)

// ValidateForm checks the fields the entry form marks as required. The API
// itself accepts samples without them.
func ValidateForm(s domain.Sample) error {
	return check(s, createRules)
}

// ValidateUpdateForm checks the fields the edit form marks as required
// before a full replacement.
func ValidateUpdateForm(s domain.Sample) error {
	return check(s, updateRules)
}

func check(s domain.Sample, rules []fieldRule) error {
	var missing []string
	for _, r := range rules {
		if !r.present(s) {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return &FieldError{Missing: missing}
	}
	return nil
}

func names(rules []fieldRule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}

func filled(v string) bool { return strings.TrimSpace(v) != "" }

func dateSet(d *domain.Date) bool { return d != nil && !d.IsZero() }
