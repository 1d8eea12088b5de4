package model

import (
	"strings"
)

// Metric selects the weight used to reduce the universe to principal cities.
type Metric string

const (
	MetricACV    Metric = "ACV"
	MetricStores Metric = "Stores"
)

// ParseMetric accepts "acv" or "stores" case-insensitively.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "acv":
		return MetricACV, nil
	case "stores":
		return MetricStores, nil
	}
	return "", &ParameterError{Name: "reduction", Value: s, Accepted: "ACV, Stores"}
}

// Preservation how targets preserve the universe structure
type Preservation string

const (
	// PreserveCities targets each city against its own totals.
	PreserveCities Preservation = "cities"
	// PreserveUniverse splits one aggregate target by each city's share.
	PreserveUniverse Preservation = "universe"
)

// ParsePreservation accepts "cities" or "universe" case-insensitively.
func ParsePreservation(s string) (Preservation, error) {
	switch p := Preservation(strings.ToLower(strings.TrimSpace(s))); p {
	case PreserveCities, PreserveUniverse:
		return p, nil
	}
	return "", &ParameterError{Name: "structure", Value: s, Accepted: "cities, universe"}
}

// SelectionMode chooses how concrete stores are picked from cascaded targets.
type SelectionMode string

const (
	SelectStructurePreserving SelectionMode = "structure"
	SelectACVMaximizing       SelectionMode = "acv"
)

// SelectionModeOf maps the boolean selection switch to a mode.
func SelectionModeOf(preserveStructure bool) SelectionMode {
	if preserveStructure {
		return SelectStructurePreserving
	}
	return SelectACVMaximizing
}

// ParseSelectionMode accepts "structure" or "acv" case-insensitively.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch m := SelectionMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SelectStructurePreserving, SelectACVMaximizing:
		return m, nil
	}
	return "", &ParameterError{Name: "selection", Value: s, Accepted: "structure, acv"}
}

// DesignParams sample design parameters
type DesignParams struct {
	Reduction      Metric        `json:"reduction" toml:"reduction"`
	CitiesCoverage float64       `json:"citiesCoverage" toml:"cities_coverage"`
	Preservation   Preservation  `json:"structure" toml:"structure"`
	TargetACV      float64       `json:"targetAcv" toml:"target_acv"`
	TargetStores   float64       `json:"targetStores" toml:"target_stores"`
	Selection      SelectionMode `json:"selection" toml:"selection"`
}

// Validate checks modes and fraction ranges.
func (p DesignParams) Validate() error {
	if _, err := ParseMetric(string(p.Reduction)); err != nil {
		return err
	}
	if _, err := ParsePreservation(string(p.Preservation)); err != nil {
		return err
	}
	if _, err := ParseSelectionMode(string(p.Selection)); err != nil {
		return err
	}
	if err := checkFraction("citiesCoverage", p.CitiesCoverage); err != nil {
		return err
	}
	if err := checkFraction("targetAcv", p.TargetACV); err != nil {
		return err
	}
	return checkFraction("targetStores", p.TargetStores)
}

// Normalized returns the params with mode strings canonicalized.
func (p DesignParams) Normalized() (DesignParams, error) {
	var err error
	if p.Reduction, err = ParseMetric(string(p.Reduction)); err != nil {
		return p, err
	}
	if p.Preservation, err = ParsePreservation(string(p.Preservation)); err != nil {
		return p, err
	}
	if p.Selection, err = ParseSelectionMode(string(p.Selection)); err != nil {
		return p, err
	}
	return p, p.Validate()
}

// SamplingParams statistical parameters for sample-size computations.
type SamplingParams struct {
	// SamplePortion is the prior proportion p, as a fraction.
	SamplePortion float64 `json:"samplePortion" toml:"sample_portion"`
	// ConfidenceLevel is a percentage, one of 80, 85, 90, 95, 98, 99.
	ConfidenceLevel int `json:"confidenceLevel" toml:"confidence_level"`
	// StandardError is the margin of error e, as a fraction.
	StandardError float64 `json:"standardError" toml:"standard_error"`
}

// DefaultSamplingParams p=0.5, 95% confidence, 5% margin.
func DefaultSamplingParams() SamplingParams {
	return SamplingParams{
		SamplePortion:   0.5,
		ConfidenceLevel: 95,
		StandardError:   0.05,
	}
}
