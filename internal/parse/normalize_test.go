package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reservas-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func TestShift(t *testing.T) {
	testCases := []struct {
		raw      string
		expected model.Shift
	}{
		{"lunch", model.ShiftLunch},
		{"Lunch", model.ShiftLunch},
		{"LUNCH", model.ShiftLunch},
		{"almoco", model.ShiftLunch},
		{"ALMOCO", model.ShiftLunch},
		{"almoço", model.ShiftLunch},
		{"Almoço", model.ShiftLunch},
		{"ALMOÇO", model.ShiftLunch},
		{"dinner", model.ShiftDinner},
		{"Dinner", model.ShiftDinner},
		{"DINNER", model.ShiftDinner},
		{"jantar", model.ShiftDinner},
		{"Jantar", model.ShiftDinner},
		{"JANTAR", model.ShiftDinner},
		{" jantar ", model.ShiftDinner},
		{"brunch", model.ShiftLunch},
		{"", model.ShiftLunch},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expected, Shift(tc.raw))
		})
	}
}

func TestLookupShift(t *testing.T) {
	_, ok := LookupShift("brunch")
	assert.False(t, ok)

	s, ok := LookupShift("Jantar")
	assert.True(t, ok)
	assert.Equal(t, model.ShiftDinner, s)
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		row      model.Row
		expected model.Reservation
	}{
		{
			name: "Legacy shift and phone in notes",
			row: model.Row{
				ID: "r1", Date: "2025-03-01", Shift: "Almoço", TableNumber: 7,
				ClientName: "Maria", GuestCount: 4, ReservationTime: "12:30",
				Notes: strPtr("Telefone: 5599999999999 | Aniversário"),
			},
			expected: model.Reservation{
				ID: "r1", Date: "2025-03-01", Shift: model.ShiftLunch, TableNumber: 7,
				ClientName: "Maria", GuestCount: 4, ReservationTime: "12:30",
				Phone: "5599999999999", Notes: "Telefone: 5599999999999 | Aniversário",
			},
		},
		{
			name: "Phone column wins over notes",
			row: model.Row{
				ID: "r2", Date: "2025-03-01", Shift: "JANTAR", TableNumber: 3,
				ClientName: "João", GuestCount: 2, ReservationTime: "20:00",
				Phone: strPtr(" 551188887777 "),
				Notes: strPtr("Status: chegou | Telefone: 5599999999999"),
			},
			expected: model.Reservation{
				ID: "r2", Date: "2025-03-01", Shift: model.ShiftDinner, TableNumber: 3,
				ClientName: "João", GuestCount: 2, ReservationTime: "20:00",
				Phone: "551188887777", Notes: "Status: chegou | Telefone: 5599999999999", Arrived: true,
			},
		},
		{
			name: "Empty phone column falls back to notes",
			row: model.Row{
				ID: "r3", Date: "2025-03-01", Shift: "dinner", TableNumber: 1,
				ClientName: "Ana", GuestCount: 1, ReservationTime: "19:00",
				Phone: strPtr(""), Notes: strPtr("Telefone: 123"),
			},
			expected: model.Reservation{
				ID: "r3", Date: "2025-03-01", Shift: model.ShiftDinner, TableNumber: 1,
				ClientName: "Ana", GuestCount: 1, ReservationTime: "19:00",
				Phone: "123", Notes: "Telefone: 123",
			},
		},
		{
			name: "Nil notes and unknown shift",
			row:  model.Row{ID: "r4", Date: "2025-03-01", Shift: "ceia", TableNumber: 40, ClientName: "Zé", GuestCount: 8, ReservationTime: "13:00"},
			expected: model.Reservation{
				ID: "r4", Date: "2025-03-01", Shift: model.ShiftLunch, TableNumber: 40,
				ClientName: "Zé", GuestCount: 8, ReservationTime: "13:00",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.row))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	rows := []model.Row{
		{ID: "a", Shift: "ALMOCO", Notes: strPtr("Telefone: 5599999999999 | Aniversário")},
		{ID: "b", Shift: "Jantar", Phone: strPtr("1"), Notes: strPtr("Status: chegou")},
		{ID: "c", Shift: "whatever"},
	}
	for _, row := range rows {
		first := Normalize(row)
		second := Normalize(ToRow(first, string(first.Shift)))
		assert.Equal(t, first.Shift, second.Shift)
		assert.Equal(t, first.Phone, second.Phone)
		assert.Equal(t, first.Arrived, second.Arrived)
	}
}

func TestNormalizeAll(t *testing.T) {
	out := NormalizeAll([]model.Row{{ID: "x", Shift: "jantar"}, {ID: "y", Shift: "almoco"}})
	if assert.Len(t, out, 2) {
		assert.Equal(t, "x", out[0].ID)
		assert.Equal(t, model.ShiftDinner, out[0].Shift)
		assert.Equal(t, model.ShiftLunch, out[1].Shift)
	}
}
