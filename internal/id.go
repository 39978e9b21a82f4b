package internal

import "github.com/oklog/ulid/v2"

// Id identifies a tree or epoch for the whole of its life. Ids only show up
// in diagnostics; ordering always goes through Coord.
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func (id Id) String() string {
	return ulid.ULID(id).String()
}

// Short returns the tail of the id, enough to tell epochs apart in a report.
func (id Id) Short() string {
	s := id.String()
	return s[len(s)-6:]
}
