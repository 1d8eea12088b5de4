package model

// Column labels expected in an uploaded universe.
const (
	ColExternalCode = "SHO_EXTERNAL_CODE"
	ColStoreID      = "SHO_ID"
	ColACV          = "ACV"
	ColPlayerID     = "Player_ID"
	ColPlayer       = "Player"
	ColSubplayerID  = "Subplayer_ID"
	ColSubplayer    = "Subplayer"
	ColCityID       = "City_ID"
	ColCity         = "City"
	ColStateID      = "State_ID"
	ColState        = "State"
)

// RequiredColumn required universe column and its description
type RequiredColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RequiredColumns lists the universe columns in the order they are reported.
var RequiredColumns = []RequiredColumn{
	{ColExternalCode, "External store code."},
	{ColStoreID, "Store ID."},
	{ColACV, "Store ACV."},
	{ColPlayerID, "ID for the commercial group or main retailer."},
	{ColPlayer, "Name of the commercial group or main retailer."},
	{ColSubplayerID, "ID for the members of the commercial group, chains or formats offered by the main retailer."},
	{ColSubplayer, "Name of the members of the commercial group, chains or formats offered by the main retailer."},
	{ColCityID, "Code for the city."},
	{ColCity, "Name of the city."},
	{ColStateID, "Code for the state."},
	{ColState, "Name of the state."},
}

// PlayerColumns are the columns of the player/subplayer hierarchy.
var PlayerColumns = []string{ColPlayerID, ColPlayer, ColSubplayerID, ColSubplayer}

// IsPlayerColumn reports whether col belongs to the player/subplayer hierarchy.
func IsPlayerColumn(col string) bool {
	for _, c := range PlayerColumns {
		if c == col {
			return true
		}
	}
	return false
}

// Store universe row
type Store struct {
	ExternalCode string  `json:"externalCode"`
	ID           string  `json:"id"`
	ACV          float64 `json:"acv"`
	PlayerID     string  `json:"playerId"`
	Player       string  `json:"player"`
	SubplayerID  string  `json:"subplayerId"`
	Subplayer    string  `json:"subplayer"`
	CityID       string  `json:"cityId"`
	City         string  `json:"city"`
	StateID      string  `json:"stateId"`
	State        string  `json:"state"`
}

// Field returns the value of a hierarchy column for this store.
// ACV and unknown columns return "".
func (s Store) Field(col string) string {
	switch col {
	case ColExternalCode:
		return s.ExternalCode
	case ColStoreID:
		return s.ID
	case ColPlayerID:
		return s.PlayerID
	case ColPlayer:
		return s.Player
	case ColSubplayerID:
		return s.SubplayerID
	case ColSubplayer:
		return s.Subplayer
	case ColCityID:
		return s.CityID
	case ColCity:
		return s.City
	case ColStateID:
		return s.StateID
	case ColState:
		return s.State
	}
	return ""
}

// CloneStores returns a shallow copy of stores so callers can reorder freely.
func CloneStores(stores []Store) []Store {
	out := make([]Store, len(stores))
	copy(out, stores)
	return out
}

// Universe totals of a store universe
type Universe struct {
	ACV    float64 `json:"acv"`
	Stores int     `json:"stores"`
}

// UniverseOf sums ACV and counts stores.
func UniverseOf(stores []Store) Universe {
	u := Universe{Stores: len(stores)}
	for _, s := range stores {
		u.ACV += s.ACV
	}
	return u
}

// PlayerExample is one row of the players help table.
type PlayerExample struct {
	PlayerID    int    `json:"playerId"`
	Player      string `json:"player"`
	SubplayerID int    `json:"subplayerId"`
	Subplayer   string `json:"subplayer"`
}

// PlayersHelp explains how players group subplayers: Player 1 groups two
// subplayers while Player 2 is its own subplayer.
func PlayersHelp() []PlayerExample {
	return []PlayerExample{
		{1, "Player 1", 101, "Subplayer 1"},
		{1, "Player 1", 102, "Subplayer 2"},
		{2, "Player 2", 2, "Player 2"},
	}
}
