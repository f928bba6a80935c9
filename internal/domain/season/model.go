package season

import (
	"strings"
	"time"
)

// Season is one competition season tracked locally. ID is the
// storage-assigned identifier; SeasonRefID is the provider's numeric
// season identifier and is never used as a storage key.
type Season struct {
	ID          string
	Competition string
	SeasonRefID int64
	Label       string
	StartDate   time.Time
	EndDate     time.Time
	CurrentWeek int
	Current     bool
}

func NormalizeCompetition(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
