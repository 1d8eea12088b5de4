package samplesize

import (
	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Size sample sizes for one stratum count
type Size struct {
	Count int `json:"count"`
	// Weight is the stratum's share of the total count, as a fraction.
	Weight float64 `json:"weight"`
	// RegularSize treats the stratum as its own population.
	RegularSize int `json:"regularSize"`
	// WeightedSize is the stratum's weighted share of the total sample size.
	WeightedSize int `json:"weightedSize"`
}

// Sizes computes, for every count, the sample size the stratum needs on its
// own and its weighted share of the sample the summed population needs. The
// second result is that population sample size.
func Sizes(counts []int, params model.SamplingParams) ([]Size, int, error) {
	total := 0
	for _, c := range counts {
		total += c
	}
	universeSize, err := RequiredSampleSize(total, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]Size, 0, len(counts))
	for _, c := range counts {
		regular, err := RequiredSampleSize(c, params)
		if err != nil {
			return nil, 0, err
		}
		weight := 0.0
		if total > 0 {
			weight = float64(c) / float64(total)
		}
		out = append(out, Size{
			Count:        c,
			Weight:       weight,
			RegularSize:  regular,
			WeightedSize: int(table.Round(weight*float64(universeSize), 0)),
		})
	}
	return out, universeSize, nil
}

// StratumSize sample sizes for one stratum of a summary
type StratumSize struct {
	Row model.StratumRow `json:"row"`
	// Weight is the stratum's share of stores, as a fraction.
	Weight float64 `json:"weight"`
	// RegularSize treats the stratum as its own population.
	RegularSize int `json:"regularSize"`
	// WeightedSize is the stratum's weighted share of the universe sample size.
	WeightedSize int `json:"weightedSize"`
}

// StructureSizes applies Sizes to the store counts of a summary.
func StructureSizes(rows []model.StratumRow, params model.SamplingParams) ([]StratumSize, int, error) {
	counts := make([]int, len(rows))
	for i, r := range rows {
		counts[i] = r.StoreCount
	}
	sizes, universeSize, err := Sizes(counts, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]StratumSize, len(rows))
	for i, r := range rows {
		out[i] = StratumSize{
			Row:          r,
			Weight:       sizes[i].Weight,
			RegularSize:  sizes[i].RegularSize,
			WeightedSize: sizes[i].WeightedSize,
		}
	}
	return out, universeSize, nil
}
