package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
)

var ErrBadDate = errors.New("invalid date")

// ParseSelection reads the sidebar form from the query string.
// With submitted=1 an absent checkbox means "off" (browsers do not send
// unchecked boxes); on a fresh load both sections are on.
func ParseSelection(q url.Values, now time.Time) (entities.Selection, error) {
	sel := entities.DefaultSelection(now)

	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		d, err := time.ParseInLocation(entities.DateLayout, raw, now.Location())
		if err != nil {
			return sel, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrBadDate, raw)
		}
		sel.Date = d
	}

	// region sconosciuta -> India
	sel.Region, _ = entities.ParseRegion(q.Get("region"))

	submitted := q.Get("submitted") == "1"
	sel.ShowGround = toggle(q, "show_ground", !submitted)
	sel.ShowPrediction = toggle(q, "show_prediction", !submitted)
	return sel, nil
}

func toggle(q url.Values, key string, absent bool) bool {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return absent
	}
	// con una checkbox e un hidden input vince l'ultimo valore
	switch strings.ToLower(strings.TrimSpace(vals[len(vals)-1])) {
	case "0", "false", "off", "no":
		return false
	default:
		return true
	}
}
