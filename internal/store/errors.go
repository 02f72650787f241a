package store

import (
	"errors"
	"regexp"
)

// ErrNotFound is returned when an update matched no row under any encoding.
var ErrNotFound = errors.New("reservation not found")

// ErrSubscriptionNotFound is returned when no push subscription has the endpoint.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// missingPhoneRe matches the "phone column is not in this schema" errors of
// PostgREST (schema cache), Postgres and SQLite.
var missingPhoneRe = regexp.MustCompile(`(?i)(schema cache|could not find the '?phone'? column|column "?(\w+\.)?phone"? (of relation "?\w+"? )?does not exist|has no column named phone|no such column: (\w+\.)?phone)`)

// IsMissingPhoneColumn reports whether err says the live schema has no phone column.
func IsMissingPhoneColumn(err error) bool {
	if err == nil {
		return false
	}
	return missingPhoneRe.MatchString(err.Error())
}
