package model

// Target column labels.
const (
	TargetStoresCityColumn   = "Target Stores (City)"
	TargetACVCityColumn      = "Target ACV (City)"
	TargetStoresChainsColumn = "Target Stores (Chains)"
	TargetACVChainsColumn    = "Target ACV (Chains)"
)

// CityTarget a city stratum of the reduced universe with its targets
type CityTarget struct {
	StratumRow
	TargetStores float64 `json:"targetStores"`
	TargetACV    float64 `json:"targetAcv"`
}

// ChainTarget chain-level target within a city
type ChainTarget struct {
	StateID      string  `json:"stateId"`
	State        string  `json:"state"`
	CityID       string  `json:"cityId"`
	City         string  `json:"city"`
	PlayerID     string  `json:"playerId"`
	Player       string  `json:"player"`
	SubplayerID  string  `json:"subplayerId"`
	Subplayer    string  `json:"subplayer"`
	TargetStores float64 `json:"targetStores"`
	TargetACV    float64 `json:"targetAcv"`
}

// AggregateTarget totals of the reduced universe and the targets derived from them.
type AggregateTarget struct {
	Stores       int     `json:"stores"`
	ACV          float64 `json:"acv"`
	TargetStores float64 `json:"targetStores"`
	TargetACV    float64 `json:"targetAcv"`
}

// Cascade targets distributed from the reduced universe down to chains
type Cascade struct {
	Preservation Preservation    `json:"structure"`
	Aggregate    AggregateTarget `json:"aggregate"`
	Cities       []CityTarget    `json:"cities"`
	Chains       []ChainTarget   `json:"chains"`
}

// TotalTargetStores sums chain-level store targets.
func (c *Cascade) TotalTargetStores() int {
	total := 0.0
	for _, t := range c.Chains {
		total += t.TargetStores
	}
	return int(total)
}
