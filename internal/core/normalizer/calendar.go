package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/99minutos/parcel-tracker/internal/pkg/metrics"
)

// BuddhistEraOffset is added to the Gregorian year by the carrier.
const BuddhistEraOffset = 543

// ErrInvalidCarrierDate is returned by ParseCarrierDate for input that is not
// a real "DD/MM/BBBB hh:mm:ss±hh:mm" timestamp.
var ErrInvalidCarrierDate = errors.New("invalid carrier date")

var carrierDatePattern = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})\s+(\d{2}):(\d{2}):(\d{2})([+-]\d{2}:\d{2})$`)

// ParseCarrierDate converts a carrier timestamp such as
// "19/07/2562 18:12:26+07:00" into the instant 2019-07-19T18:12:26+07:00.
// The offset of the input is kept as the location of the returned time.
func ParseCarrierDate(s string) (time.Time, error) {
	m := carrierDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match DD/MM/YYYY hh:mm:ss±hh:mm", ErrInvalidCarrierDate, s)
	}

	year, err := strconv.Atoi(m[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidCarrierDate, s, err)
	}
	year -= BuddhistEraOffset
	if year < 1 {
		return time.Time{}, fmt.Errorf("%w: %q: year %s predates the era offset", ErrInvalidCarrierDate, s, m[3])
	}

	iso := fmt.Sprintf("%04d-%s-%sT%s:%s:%s%s", year, m[2], m[1], m[4], m[5], m[6], m[7])
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidCarrierDate, s, err)
	}
	return t, nil
}

// ConvertDate is the non-failing form of ParseCarrierDate. When the input
// cannot be converted it logs the failure, increments
// DateConversionFailuresTotal and returns the current time.
func (n *Normalizer) ConvertDate(s string) time.Time {
	t, err := ParseCarrierDate(s)
	if err != nil {
		metrics.DateConversionFailuresTotal.Inc()
		n.log.Warn().Err(err).Str("input", s).Msg("carrier date conversion failed, using current time")
		return n.now()
	}
	return t
}
