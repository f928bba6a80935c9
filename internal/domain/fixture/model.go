package fixture

import "time"

// Fixture is one scheduled match belonging to a season. ID is the
// storage-assigned identifier; GameID is the provider's numeric game
// identifier, unique within a season, and is the join key used when
// reconciling provider payloads against stored rows.
//
// The typed fields cover what the sync core reasons about. Everything
// else the provider sends (scores, venue, period data, future fields)
// travels in Attrs with camelCase keys and is written through opaquely.
type Fixture struct {
	ID       string
	SeasonID string
	GameID   int64
	Week     int
	Status   string
	Date     time.Time
	HomeTeam string
	AwayTeam string
	Attrs    map[string]any
}

// Day returns the calendar date of the fixture with the time portion
// truncated, in UTC.
func (f Fixture) Day() time.Time {
	d := f.Date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
