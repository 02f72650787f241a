package parse

import (
	"strings"

	"reservas-backend/internal/model"
)

// shiftAliases maps every lower-cased encoding the remote store has ever
// used for a shift to its canonical value.
var shiftAliases = map[string]model.Shift{
	"lunch":  model.ShiftLunch,
	"almoco": model.ShiftLunch,
	"almoço": model.ShiftLunch,
	"dinner": model.ShiftDinner,
	"jantar": model.ShiftDinner,
}

// Shift maps a raw shift encoding to its canonical value, case-insensitively.
// Unrecognised values map to lunch.
func Shift(raw string) model.Shift {
	if s, ok := LookupShift(raw); ok {
		return s
	}
	return model.ShiftLunch
}

// LookupShift is like Shift but reports whether raw was a known encoding.
func LookupShift(raw string) (model.Shift, bool) {
	s, ok := shiftAliases[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}
