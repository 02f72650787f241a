package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Table numbers run from MinTable to MaxTable inclusive for every shift.
const (
	MinTable = 1
	MaxTable = 40
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ErrInvalidReservation is returned when a reservation breaks a model invariant.
var ErrInvalidReservation = errors.New("invalid reservation")

// Shift is one of the two daily dining periods.
type Shift string

const (
	ShiftLunch  Shift = "lunch"
	ShiftDinner Shift = "dinner"
)

// Shifts lists the canonical shifts in display order.
var Shifts = []Shift{ShiftLunch, ShiftDinner}

// Valid reports whether s is a canonical shift.
func (s Shift) Valid() bool {
	return s == ShiftLunch || s == ShiftDinner
}

// DefaultTime is the reservation time the dialog starts from for this shift.
func (s Shift) DefaultTime() string {
	if s == ShiftDinner {
		return "19:00"
	}
	return "12:00"
}

// Reservation is the canonical in-memory reservation.
type Reservation struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Shift           Shift  `json:"shift"`
	TableNumber     int    `json:"table_number"`
	ClientName      string `json:"client_name"`
	GuestCount      int    `json:"guest_count"`
	ReservationTime string `json:"reservation_time"`
	Phone           string `json:"phone,omitempty"`
	// Notes is the raw notes text as stored, legacy markers included.
	Notes   string `json:"notes,omitempty"`
	Arrived bool   `json:"arrived"`
}

// Key is the natural key of a reservation within its date.
type Key struct {
	Shift       Shift
	TableNumber int
}

func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.Shift, k.TableNumber)
}

// Key returns the (shift, table) part of the natural key.
func (r Reservation) Key() Key {
	return Key{Shift: r.Shift, TableNumber: r.TableNumber}
}

// Validate checks the invariants a committed reservation must hold.
func (r Reservation) Validate() error {
	if r.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidReservation)
	}
	if !r.Shift.Valid() {
		return fmt.Errorf("%w: unknown shift %q", ErrInvalidReservation, r.Shift)
	}
	if r.TableNumber < MinTable || r.TableNumber > MaxTable {
		return fmt.Errorf("%w: table %d out of range [%d,%d]", ErrInvalidReservation, r.TableNumber, MinTable, MaxTable)
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidReservation)
	}
	if r.GuestCount < 1 {
		return fmt.Errorf("%w: guest count must be at least 1", ErrInvalidReservation)
	}
	if !clockRe.MatchString(r.ReservationTime) {
		return fmt.Errorf("%w: reservation time %q is not HH:MM", ErrInvalidReservation, r.ReservationTime)
	}
	return nil
}

// Row is a reservation exactly as the remote store holds it. Shift may carry
// any historical encoding and Phone may be missing from the live schema.
type Row struct {
	ID              string  `gorm:"column:id;primaryKey" json:"id"`
	Date            string  `gorm:"column:date;not null;uniqueIndex:reservations_natural_key" json:"date"`
	Shift           string  `gorm:"column:shift;not null;uniqueIndex:reservations_natural_key" json:"shift"`
	TableNumber     int     `gorm:"column:table_number;not null;uniqueIndex:reservations_natural_key" json:"table_number"`
	ClientName      string  `gorm:"column:client_name" json:"client_name"`
	GuestCount      int     `gorm:"column:guest_count" json:"guest_count"`
	ReservationTime string  `gorm:"column:reservation_time" json:"reservation_time"`
	Phone           *string `gorm:"column:phone" json:"phone"`
	Notes           *string `gorm:"column:notes" json:"notes"`
}

// TableName pins the remote table name.
func (Row) TableName() string {
	return "reservations"
}
