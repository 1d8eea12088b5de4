package model

import (
	"fmt"
	"strings"
)

// Grouping stratification hierarchy
type Grouping string

const (
	GroupingRetailer Grouping = "retailer"
	GroupingState    Grouping = "state"
	GroupingCity     Grouping = "city"
	GroupingDetailed Grouping = "detailed"
)

// Groupings in the order the universe structure is produced.
var Groupings = []Grouping{GroupingRetailer, GroupingState, GroupingCity, GroupingDetailed}

// ParseGrouping accepts a grouping name case-insensitively.
func ParseGrouping(s string) (Grouping, error) {
	g := Grouping(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Groupings {
		if g == known {
			return g, nil
		}
	}
	return "", &ParameterError{Name: "grouping", Value: s, Accepted: "retailer, state, city, detailed"}
}

// Columns returns the key columns of the grouping.
func (g Grouping) Columns() []string {
	switch g {
	case GroupingRetailer:
		return []string{ColPlayerID, ColPlayer, ColSubplayerID, ColSubplayer}
	case GroupingState:
		return []string{ColStateID, ColState}
	case GroupingCity:
		return []string{ColCityID, ColCity}
	case GroupingDetailed:
		return []string{ColStateID, ColState, ColCityID, ColCity, ColPlayerID, ColPlayer, ColSubplayerID, ColSubplayer}
	}
	return nil
}

// Title is the label prefix used in summary column names.
func (g Grouping) Title() string {
	if g == "" {
		return ""
	}
	return strings.ToUpper(string(g[:1])) + string(g[1:])
}

// Column labels of a stratum summary.
func (g Grouping) ACVWeightColumn() string     { return fmt.Sprintf("%s ACV Weight (%%)", g.Title()) }
func (g Grouping) ACVCumulativeColumn() string { return fmt.Sprintf("%s ACV Cumm Sum (%%)", g.Title()) }
func (g Grouping) StoresWeightColumn() string  { return fmt.Sprintf("%s Stores Weight (%%)", g.Title()) }
func (g Grouping) StoresCumulativeColumn() string {
	return fmt.Sprintf("%s Stores Cumm Sum (%%)", g.Title())
}

// StoreCountColumn labels the per-stratum store count.
const StoreCountColumn = "Store_Count"

// StratumRow one stratum of a summary
type StratumRow struct {
	Grouping Grouping `json:"grouping"`
	// Keys holds the values of Grouping.Columns(), in order.
	Keys             []string `json:"keys"`
	ACV              float64  `json:"acv"`
	StoreCount       int      `json:"storeCount"`
	ACVWeight        float64  `json:"acvWeight"`
	ACVCumulative    float64  `json:"acvCumulative"`
	StoresWeight     float64  `json:"storesWeight"`
	StoresCumulative float64  `json:"storesCumulative"`
}

// Key returns the value of a key column, or "" when the grouping lacks it.
func (r StratumRow) Key(col string) string {
	for i, c := range r.Grouping.Columns() {
		if c == col && i < len(r.Keys) {
			return r.Keys[i]
		}
	}
	return ""
}

// Weight returns the weight percentage for the metric.
func (r StratumRow) Weight(m Metric) float64 {
	if m == MetricStores {
		return r.StoresWeight
	}
	return r.ACVWeight
}

// Cumulative returns the cumulative percentage for the metric.
func (r StratumRow) Cumulative(m Metric) float64 {
	if m == MetricStores {
		return r.StoresCumulative
	}
	return r.ACVCumulative
}

// Structure the four stratified views of a universe
type Structure struct {
	Universe Universe     `json:"universe"`
	Retailer []StratumRow `json:"retailer"`
	State    []StratumRow `json:"state"`
	City     []StratumRow `json:"city"`
	Detailed []StratumRow `json:"detailed"`
}

// View returns the summary for a grouping.
func (s *Structure) View(g Grouping) []StratumRow {
	switch g {
	case GroupingRetailer:
		return s.Retailer
	case GroupingState:
		return s.State
	case GroupingCity:
		return s.City
	case GroupingDetailed:
		return s.Detailed
	}
	return nil
}
