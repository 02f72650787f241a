package notification

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"reservas-backend/internal/model"
)

// ErrNoPhone is returned when a confirmation link is requested for a
// reservation without a phone number.
var ErrNoPhone = errors.New("reservation has no phone number")

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// LongDatePT formats an ISO date as "1 de março de 2025".
func LongDatePT(isoDate string) (string, error) {
	t, err := time.Parse(time.DateOnly, isoDate)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", isoDate, err)
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), ptMonths[t.Month()-1], t.Year()), nil
}

// ConfirmationMessage is the text sent to the guest to confirm a booking.
func ConfirmationMessage(restaurant string, r model.Reservation) (string, error) {
	dateText, err := LongDatePT(r.Date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Olá, sou do %s. Esta é uma mensagem que sua reserva do dia %s às %s para %d pessoas, está confirmada",
		restaurant, dateText, r.ReservationTime, r.GuestCount), nil
}

// WhatsAppLink builds a wa.me deep link carrying the confirmation message.
func WhatsAppLink(restaurant string, r model.Reservation) (string, error) {
	phone := digitsOnly(r.Phone)
	if phone == "" {
		return "", ErrNoPhone
	}
	msg, err := ConfirmationMessage(restaurant, r)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	return "https://wa.me/" + phone + "?text=" + text, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
