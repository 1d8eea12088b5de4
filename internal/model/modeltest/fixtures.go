// Package modeltest provides store universes for tests.
package modeltest

import (
	"strconv"

	"github.com/sape94/NIQ-sp-proj/internal/model"
)

// Chain identifies a player/subplayer pair.
type Chain struct {
	PlayerID, Player, SubplayerID, Subplayer string
}

// City identifies a city and its state.
type City struct {
	StateID, State, CityID, City string
}

var (
	ChainA = Chain{"1", "Player 1", "11", "Chain A"}
	ChainB = Chain{"2", "Player 2", "2", "Chain B"}
	ChainC = Chain{"1", "Player 1", "12", "Chain C"}

	CityOne   = City{"1", "State One", "100", "City One"}
	CityTwo   = City{"1", "State One", "200", "City Two"}
	CityThree = City{"2", "State Two", "300", "City Three"}
)

// Builder appends stores with sequential ids.
type Builder struct {
	stores []model.Store
}

// Add appends one store per ACV value.
func (b *Builder) Add(city City, chain Chain, acvs ...float64) *Builder {
	for _, acv := range acvs {
		id := strconv.Itoa(len(b.stores) + 1)
		b.stores = append(b.stores, model.Store{
			ExternalCode: "EXT-" + id,
			ID:           id,
			ACV:          acv,
			PlayerID:     chain.PlayerID,
			Player:       chain.Player,
			SubplayerID:  chain.SubplayerID,
			Subplayer:    chain.Subplayer,
			CityID:       city.CityID,
			City:         city.City,
			StateID:      city.StateID,
			State:        city.State,
		})
	}
	return b
}

// Stores returns the built stores.
func (b *Builder) Stores() []model.Store {
	return model.CloneStores(b.stores)
}

// SingleCity is one city with two chains:
// Chain A has 6 stores totalling 600 ACV, Chain B 4 stores totalling 400.
func SingleCity() []model.Store {
	b := &Builder{}
	b.Add(CityOne, ChainA, 150, 130, 110, 90, 70, 50)
	b.Add(CityOne, ChainB, 140, 135, 120, 5)
	return b.Stores()
}

// ThreeCities extends SingleCity with City Two (Chain A 2 stores 200 ACV,
// Chain C 1 store 100) and City Three (Chain B 2 stores 100 ACV).
// City ACV weights are 71.43, 21.43 and 7.14 percent.
func ThreeCities() []model.Store {
	b := &Builder{}
	b.Add(CityOne, ChainA, 150, 130, 110, 90, 70, 50)
	b.Add(CityOne, ChainB, 140, 135, 120, 5)
	b.Add(CityTwo, ChainA, 120, 80)
	b.Add(CityTwo, ChainC, 100)
	b.Add(CityThree, ChainB, 50, 50)
	return b.Stores()
}

// IDs returns store ids in order.
func IDs(stores []model.Store) []string {
	ids := make([]string, 0, len(stores))
	for _, s := range stores {
		ids = append(ids, s.ID)
	}
	return ids
}
