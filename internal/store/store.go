package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"reservas-backend/internal/model"
	"reservas-backend/internal/parse"
)

// Store defines the remote reservation operations. Writes probe the live
// schema's shift encoding and phone column on every call.
type Store interface {
	FetchByDate(ctx context.Context, date string) ([]model.Row, error)
	Upsert(ctx context.Context, r model.Reservation) error
	Delete(ctx context.Context, date string, shift model.Shift, table int) error
	MarkArrived(ctx context.Context, date string, shift model.Shift, table int, phone, notes string) error
}

var (
	naturalKey = []clause.Column{{Name: "date"}, {Name: "shift"}, {Name: "table_number"}}

	upsertColumns        = []string{"client_name", "guest_count", "reservation_time", "phone", "notes"}
	upsertColumnsNoPhone = []string{"client_name", "guest_count", "reservation_time", "notes"}
)

// gormStore implements Store using GORM.
type gormStore struct {
	db        *gorm.DB
	encodings ShiftEncodings
	log       zerolog.Logger
}

// Option configures a gormStore.
type Option func(*gormStore)

// WithEncodings replaces the default shift encoding candidates.
func WithEncodings(e ShiftEncodings) Option {
	return func(s *gormStore) { s.encodings = e }
}

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *gormStore) { s.log = l.With().Str("component", "store").Logger() }
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...Option) Store {
	s := &gormStore{
		db:        db,
		encodings: NewShiftEncodings(nil),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchByDate returns every stored row for date, whatever its encoding.
func (s *gormStore) FetchByDate(ctx context.Context, date string) ([]model.Row, error) {
	var rows []model.Row
	if err := s.db.WithContext(ctx).Where(map[string]any{"date": date}).Order("table_number").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reservations for %s: %w", date, err)
	}
	return rows, nil
}

// attemptDB is the session for a single fallback candidate. Its rejections
// are expected and reported by cascade, so GORM's own logger stays silent.
func (s *gormStore) attemptDB(ctx context.Context) *gorm.DB {
	return s.db.Session(&gorm.Session{Context: ctx, Logger: s.db.Logger.LogMode(logger.Silent)})
}

// storedID returns the id of the row holding r's natural key under any of the
// shift's encodings, or "" when there is none. The shift is compared as text
// so that enum columns accept every candidate.
func (s *gormStore) storedID(ctx context.Context, r model.Reservation) (string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Row{}).
		Where("date = ? AND table_number = ? AND CAST(shift AS TEXT) IN ?", r.Date, r.TableNumber, s.encodings.For(r.Shift)).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return "", fmt.Errorf("failed to look up reservation %s/%d: %w", r.Date, r.TableNumber, err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// Upsert creates or updates the reservation on its natural key. The stored id
// is reused, so a candidate encoding different from the stored one collides
// on the primary key instead of creating a second row for the same table.
func (s *gormStore) Upsert(ctx context.Context, r model.Reservation) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		id, err := s.storedID(ctx, r)
		if err != nil {
			return err
		}
		if id == "" {
			id = uuid.NewString()
		}
		r.ID = id
	}
	decoded := parse.DecodeNotes(r.Notes)
	phone := r.Phone
	if phone == "" {
		phone = decoded.Phone
	}
	arrived := r.Arrived || decoded.Arrived

	return s.cascade(ctx, "upsert", r.Shift, true, func(ctx context.Context, encoding string, omitPhone bool) (bool, error) {
		notes := parse.Notes{Body: decoded.Body, Arrived: arrived}
		columns := upsertColumns
		tx := s.attemptDB(ctx)
		if omitPhone {
			notes.Phone = phone
			columns = upsertColumnsNoPhone
			tx = tx.Omit("phone")
		}

		rec := r
		rec.Phone = phone
		rec.Notes = parse.EncodeNotes(notes)
		row := parse.ToRow(rec, encoding)
		if omitPhone {
			row.Phone = nil
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   naturalKey,
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(&row).Error
		return err == nil, err
	})
}

// Delete removes the reservation for the natural key. A key with no row under
// any encoding is already deleted.
func (s *gormStore) Delete(ctx context.Context, date string, shift model.Shift, table int) error {
	err := s.cascade(ctx, "delete", shift, false, func(ctx context.Context, encoding string, _ bool) (bool, error) {
		res := s.attemptDB(ctx).
			Where(map[string]any{"date": date, "shift": encoding, "table_number": table}).
			Delete(&model.Row{})
		return res.RowsAffected > 0, res.Error
	})
	if errors.Is(err, errNoMatch) {
		return nil
	}
	return err
}

// MarkArrived rewrites the notes of the reservation with the arrival and phone
// markers, replacing any markers already present. Calling it again leaves the
// notes unchanged.
func (s *gormStore) MarkArrived(ctx context.Context, date string, shift model.Shift, table int, phone, notes string) error {
	decoded := parse.DecodeNotes(notes)
	if phone == "" {
		phone = decoded.Phone
	}
	encoded := parse.EncodeNotes(parse.Notes{Body: decoded.Body, Phone: phone, Arrived: true})

	err := s.cascade(ctx, "mark_arrived", shift, phone != "", func(ctx context.Context, encoding string, omitPhone bool) (bool, error) {
		updates := map[string]any{"notes": encoded}
		if phone != "" && !omitPhone {
			updates["phone"] = phone
		}
		res := s.attemptDB(ctx).Model(&model.Row{}).
			Where(map[string]any{"date": date, "shift": encoding, "table_number": table}).
			Updates(updates)
		return res.RowsAffected > 0, res.Error
	})
	if errors.Is(err, errNoMatch) {
		return ErrNotFound
	}
	return err
}
