package store

import (
	"context"
	"errors"

	"reservas-backend/internal/metrics"
	"reservas-backend/internal/model"
)

// errNoMatch means every candidate ran cleanly but none matched a row.
var errNoMatch = errors.New("no row matched any shift encoding")

// attemptFunc performs one remote write with the given shift encoding. It
// reports whether a row was written or matched.
type attemptFunc func(ctx context.Context, encoding string, omitPhone bool) (matched bool, err error)

// cascade runs attempt over the ordered shift encodings for shift, stopping
// at the first success. When usesPhone is set and a full pass failed with an
// error that points at a missing phone column, the whole list is retried
// with the phone column omitted. Attempts are strictly sequential.
//
// It returns nil on success, errNoMatch when at least one attempt ran cleanly
// without matching anything, and otherwise the last observed error.
func (s *gormStore) cascade(ctx context.Context, op string, shift model.Shift, usesPhone bool, attempt attemptFunc) error {
	candidates := s.encodings.For(shift)
	log := s.log.With().Str("op", op).Str("shift", string(shift)).Logger()

	var lastErr error
	missed, phoneMissing := false, false

	passes := []bool{false}
	if usesPhone {
		passes = append(passes, true)
	}
	for _, omitPhone := range passes {
		if omitPhone && (missed || !phoneMissing) {
			break
		}
		for i, encoding := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}

			matched, err := attempt(ctx, encoding, omitPhone)
			switch {
			case err != nil:
				metrics.IncFallbackAttempt(op, "error")
				lastErr = err
				if IsMissingPhoneColumn(err) {
					phoneMissing = true
				}
				log.Debug().Err(err).Str("encoding", encoding).Bool("omit_phone", omitPhone).Msg("candidate rejected")
			case !matched:
				metrics.IncFallbackAttempt(op, "miss")
				missed = true
			default:
				metrics.IncFallbackAttempt(op, "ok")
				if i > 0 || omitPhone {
					log.Info().Str("encoding", encoding).Bool("omit_phone", omitPhone).Msg("write accepted by fallback candidate")
				}
				return nil
			}
		}
	}

	if missed {
		return errNoMatch
	}
	metrics.IncFallbackExhausted(op)
	log.Warn().Err(lastErr).Int("candidates", len(candidates)).Msg("all shift encodings failed")
	return lastErr
}
