package reconcile

import (
	"github.com/rs/zerolog"

	"reservas-backend/internal/metrics"
	"reservas-backend/internal/model"
	"reservas-backend/internal/parse"
	"reservas-backend/internal/realtime"
)

// Merger applies realtime change events to a Cache. Application is
// idempotent per id; the next refetch corrects anything it gets wrong.
type Merger struct {
	cache *Cache
	log   zerolog.Logger
}

// NewMerger creates a merger writing into cache.
func NewMerger(cache *Cache, logger zerolog.Logger) *Merger {
	return &Merger{cache: cache, log: logger.With().Str("component", "merger").Logger()}
}

// Apply merges ev, received on the subscription for date. It reports whether
// the cache changed. Events for any date other than the active one are dropped.
func (m *Merger) Apply(date string, ev realtime.ChangeEvent) bool {
	if d := ev.Date(); d != "" && d != date {
		m.record(ev, "foreign_date")
		return false
	}

	var newRes, oldRes *model.Reservation
	if ev.New != nil {
		r := parse.Normalize(*ev.New)
		newRes = &r
	}
	if ev.Old != nil {
		r := parse.Normalize(*ev.Old)
		oldRes = &r
	}

	var fn func([]model.Reservation) ([]model.Reservation, bool)
	switch ev.EventType {
	case realtime.EventInsert:
		if newRes == nil || newRes.ID == "" {
			m.record(ev, "invalid")
			return false
		}
		fn = func(items []model.Reservation) ([]model.Reservation, bool) {
			if indexOf(items, newRes.ID) >= 0 {
				return items, false
			}
			return append(items, *newRes), true
		}
	case realtime.EventUpdate:
		if newRes == nil || newRes.ID == "" {
			m.record(ev, "invalid")
			return false
		}
		fn = func(items []model.Reservation) ([]model.Reservation, bool) {
			if i := indexOf(items, newRes.ID); i >= 0 {
				items[i] = *newRes
				return items, true
			}
			return append(items, *newRes), true
		}
	case realtime.EventDelete:
		if oldRes == nil || oldRes.ID == "" {
			m.record(ev, "invalid")
			return false
		}
		fn = func(items []model.Reservation) ([]model.Reservation, bool) {
			i := indexOf(items, oldRes.ID)
			if i < 0 {
				return items, false
			}
			return append(items[:i], items[i+1:]...), true
		}
	default:
		m.record(ev, "invalid")
		return false
	}

	stale, changed := m.cache.update(date, fn)
	switch {
	case stale:
		m.record(ev, "stale_date")
	case changed:
		m.record(ev, "applied")
	default:
		m.record(ev, "noop")
	}
	return changed
}

func (m *Merger) record(ev realtime.ChangeEvent, result string) {
	metrics.IncRealtimeEvent(string(ev.EventType), result)
	if result != "applied" && result != "noop" {
		m.log.Debug().Str("type", string(ev.EventType)).Str("result", result).Msg("change event dropped")
	}
}

func indexOf(items []model.Reservation, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
