// Package normalizer turns raw Thailand Post tracking records into the
// carrier-agnostic domain model: status codes become ParcelStatus values and
// Buddhist Era timestamps become time.Time instants.
//
// Normalisation never fails. Unknown status codes resolve to
// StatusUnknown and unparseable timestamps resolve to the current time; both
// cases are logged and counted so the mapping table and date handling can be
// maintained.
package normalizer

import (
	"time"

	"github.com/rs/zerolog"
)

// Normalizer applies the status table and date conversion, reporting
// degraded conversions through its logger and the metrics package.
type Normalizer struct {
	log zerolog.Logger
	now func() time.Time
}

// New returns a Normalizer. now supplies the substitute timestamp for failed
// conversions; time.Now is used when nil.
func New(log zerolog.Logger, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{log: log, now: now}
}
