package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyUniverse is returned when a computation receives no stores.
var ErrEmptyUniverse = errors.New("store universe is empty")

// SchemaError reports required columns that are absent or mislabeled.
type SchemaError struct {
	Missing []RequiredColumn
	// PlayerHint is set when a missing column belongs to the player/subplayer
	// hierarchy; callers should point the user at PlayersHelp.
	PlayerHint bool
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "the following %d columns are either missing or not properly labeled:", len(e.Missing))
	for _, col := range e.Missing {
		fmt.Fprintf(&b, "\n -- %s: %s", col.Name, col.Description)
	}
	if e.PlayerHint {
		b.WriteString("\nfor more information about players and subplayers see the players help")
	}
	return b.String()
}

// MissingNames returns the missing column labels.
func (e *SchemaError) MissingNames() []string {
	names := make([]string, 0, len(e.Missing))
	for _, col := range e.Missing {
		names = append(names, col.Name)
	}
	return names
}

// DataTypeError reports a cell that does not hold a valid value for its
// column: a non-numeric ACV, or an empty or repeated store id.
type DataTypeError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *DataTypeError) Error() string {
	if e.Column == ColACV {
		return fmt.Sprintf("the %s column should be numeric: row %d value %q: %v", e.Column, e.Row, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s at row %d value %q: %v", e.Column, e.Row, e.Value, e.Err)
}

func (e *DataTypeError) Unwrap() error { return e.Err }

// ParameterError reports a caller parameter outside its accepted set.
type ParameterError struct {
	Name     string
	Value    any
	Accepted string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: accepted %s", e.Name, e.Value, e.Accepted)
}

// LookupError reports a (city, chain) partition without a cascaded target.
type LookupError struct {
	CityID      string
	SubplayerID string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no cascaded target for city %q subplayer %q", e.CityID, e.SubplayerID)
}

// checkFraction validates that v lies in [0,1].
func checkFraction(name string, v float64) error {
	if v < 0 || v > 1 || v != v {
		return &ParameterError{Name: name, Value: v, Accepted: "a fraction in [0, 1]"}
	}
	return nil
}
