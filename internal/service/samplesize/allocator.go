package samplesize

import (
	"errors"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Stratum a population count to allocate a sample across
type Stratum struct {
	Key        string `json:"key"`
	Population int    `json:"population"`
}

// Allocation a stratum's share of the sample
type Allocation struct {
	Stratum
	// Proportional is the rounded proportional share before reconciliation.
	Proportional int `json:"proportional"`
	Allocated    int `json:"allocated"`
}

// Allocator distributes a total sample across strata. Its random source only
// breaks ties between equally sized strata during reconciliation.
type Allocator struct {
	rng    *rand.Rand
	logger *zap.Logger
}

// NewAllocator creates an allocator. A nil rng is seeded with 1.
func NewAllocator(rng *rand.Rand, logger *zap.Logger) *Allocator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{rng: rng, logger: logger}
}

// Allocate gives each stratum round(population/total·n) units and then
// reconciles rounding drift so the allocations sum to exactly n. A shortfall
// is filled one unit per stratum per round, smallest allocations first,
// skipping strata already at their population. An overshoot is removed the
// same way, largest allocations first.
func (a *Allocator) Allocate(strata []Stratum, n int) ([]Allocation, error) {
	total := 0
	for _, s := range strata {
		if s.Population < 0 {
			return nil, &model.ParameterError{Name: "population", Value: s.Population, Accepted: "a non-negative store count"}
		}
		total += s.Population
	}
	if n < 0 || n > total {
		return nil, &model.ParameterError{Name: "sampleSize", Value: n, Accepted: "an integer between 0 and the population size"}
	}

	out := make([]Allocation, len(strata))
	sum := 0
	for i, s := range strata {
		share := 0
		if total > 0 {
			share = int(table.Round(float64(s.Population)/float64(total)*float64(n), 0))
		}
		if share > s.Population {
			share = s.Population
		}
		out[i] = Allocation{Stratum: s, Proportional: share, Allocated: share}
		sum += share
	}

	drift := n - sum
	for drift != 0 {
		dir := 1
		if drift < 0 {
			dir = -1
		}
		moved := a.adjust(out, drift*dir, dir)
		if moved == 0 {
			return nil, errors.New("allocation drift cannot be reconciled")
		}
		drift -= moved * dir
	}

	a.logger.Debug("sample allocated",
		zap.Int("strata", len(strata)),
		zap.Int("n", n),
		zap.Int("drift", n-sum),
	)
	return out, nil
}

// adjust moves up to want units in direction dir (+1 fill, -1 remove), at most
// one per stratum, and returns how many moved. Eligible strata are shuffled
// before a stable sort so equal allocations are picked at random.
func (a *Allocator) adjust(out []Allocation, want, dir int) int {
	eligible := make([]int, 0, len(out))
	for i, alloc := range out {
		if dir > 0 && alloc.Allocated < alloc.Population {
			eligible = append(eligible, i)
		}
		if dir < 0 && alloc.Allocated > 0 {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return 0
	}

	a.rng.Shuffle(len(eligible), func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
	sort.SliceStable(eligible, func(i, j int) bool {
		if dir > 0 {
			return out[eligible[i]].Allocated < out[eligible[j]].Allocated
		}
		return out[eligible[i]].Allocated > out[eligible[j]].Allocated
	})

	moved := 0
	for _, idx := range eligible {
		if moved == want {
			break
		}
		out[idx].Allocated += dir
		moved++
	}
	return moved
}

// Total sums allocated units.
func Total(allocs []Allocation) int {
	total := 0
	for _, a := range allocs {
		total += a.Allocated
	}
	return total
}
