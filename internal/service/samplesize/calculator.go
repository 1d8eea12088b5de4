package samplesize

import (
	"math"
	"sort"

	"github.com/sape94/NIQ-sp-proj/internal/model"
)

// zScores maps supported confidence levels (percent) to two-sided z-scores.
var zScores = map[int]float64{
	99: 2.576,
	98: 2.326,
	95: 1.96,
	90: 1.645,
	85: 1.44,
	80: 1.282,
}

// ceilTolerance absorbs float noise so exact integers do not round up.
const ceilTolerance = 1e-9

// ConfidenceLevels returns the supported confidence levels, highest first.
func ConfidenceLevels() []int {
	levels := make([]int, 0, len(zScores))
	for lvl := range zScores {
		levels = append(levels, lvl)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	return levels
}

// ZScore returns the z-score of a supported confidence level.
func ZScore(confidenceLevel int) (float64, error) {
	z, ok := zScores[confidenceLevel]
	if !ok {
		return 0, &model.ParameterError{
			Name:     "confidenceLevel",
			Value:    confidenceLevel,
			Accepted: "99, 98, 95, 90, 85, 80",
		}
	}
	return z, nil
}

// Validate checks sampling parameters.
func Validate(params model.SamplingParams) error {
	if _, err := ZScore(params.ConfidenceLevel); err != nil {
		return err
	}
	if p := params.SamplePortion; p < 0 || p > 1 || math.IsNaN(p) {
		return &model.ParameterError{Name: "samplePortion", Value: p, Accepted: "a fraction in [0, 1]"}
	}
	if e := params.StandardError; e <= 0 || e > 1 || math.IsNaN(e) {
		return &model.ParameterError{Name: "standardError", Value: e, Accepted: "a fraction in (0, 1]"}
	}
	return nil
}

// RequiredSampleSize applies the finite-population correction to the sample
// size for a proportion:
//
//	n0 = z²·p·(1−p)/e²
//	n  = ceil(n0·N / (n0 + N − 1))
func RequiredSampleSize(population int, params model.SamplingParams) (int, error) {
	if err := Validate(params); err != nil {
		return 0, err
	}
	if population < 0 {
		return 0, &model.ParameterError{Name: "population", Value: population, Accepted: "a non-negative store count"}
	}
	if population == 0 {
		return 0, nil
	}

	z := zScores[params.ConfidenceLevel]
	p := params.SamplePortion
	e := params.StandardError
	n0 := z * z * p * (1 - p) / (e * e)
	if n0 == 0 {
		return 0, nil
	}

	N := float64(population)
	n := n0 * N / (n0 + N - 1)
	return int(math.Ceil(n - ceilTolerance)), nil
}
