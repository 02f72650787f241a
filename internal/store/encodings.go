package store

import (
	"reservas-backend/internal/model"
)

// DefaultShiftEncodings lists, per canonical shift, every encoding the remote
// store has accepted over its history, in the order writes should try them:
// the canonical token, the Portuguese legacy form, then case variants.
var DefaultShiftEncodings = map[model.Shift][]string{
	model.ShiftLunch:  {"lunch", "almoco", "almoço", "Lunch", "Almoço", "ALMOCO", "LUNCH"},
	model.ShiftDinner: {"dinner", "jantar", "Dinner", "Jantar", "JANTAR", "DINNER"},
}

// ShiftEncodings is the ordered candidate list used by every write.
type ShiftEncodings struct {
	byShift map[model.Shift][]string
}

// NewShiftEncodings builds candidate lists from overrides keyed by canonical
// shift name, falling back to DefaultShiftEncodings for missing shifts. The
// canonical token always comes first and duplicates are dropped.
func NewShiftEncodings(overrides map[string][]string) ShiftEncodings {
	byShift := make(map[model.Shift][]string, len(model.Shifts))
	for _, shift := range model.Shifts {
		list := DefaultShiftEncodings[shift]
		if o, ok := overrides[string(shift)]; ok && len(o) > 0 {
			list = o
		}
		byShift[shift] = withCanonicalFirst(shift, list)
	}
	return ShiftEncodings{byShift: byShift}
}

// For returns the candidates for shift. Unknown shifts get lunch's list,
// matching how the normalizer degrades them.
func (e ShiftEncodings) For(shift model.Shift) []string {
	if e.byShift == nil {
		e = NewShiftEncodings(nil)
	}
	if list, ok := e.byShift[shift]; ok {
		return list
	}
	return e.byShift[model.ShiftLunch]
}

func withCanonicalFirst(shift model.Shift, list []string) []string {
	seen := map[string]bool{string(shift): true}
	out := []string{string(shift)}
	for _, v := range list {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
