package parse

import (
	"regexp"
	"strings"
)

// Legacy notes encoding: status and phone markers live inside the free-text
// notes as " | "-separated segments, e.g. "Status: chegou | Telefone: 5599999999999 | Aniversário".
const (
	noteSeparator = " | "
	arrivedMarker = "Status: chegou"
	phonePrefix   = "Telefone: "
)

var (
	phoneLabelRe   = regexp.MustCompile(`(?i)telefone:[ \t]*`)
	phoneGroupRe   = regexp.MustCompile(`^[+(]?[0-9][0-9()\-.]*$`)
	statusMarkerRe = regexp.MustCompile(`(?i)status:\s*chegou\b`)
	arrivedRe      = regexp.MustCompile(`(?i)\bchegou\b`)
)

// Notes is the decoded form of a raw notes field.
type Notes struct {
	Body    string
	Phone   string
	Arrived bool
}

// DecodeNotes splits raw notes into the free-text body and the embedded
// phone and arrival markers. Decoding the encoding of its result yields the
// same Notes.
func DecodeNotes(raw string) Notes {
	var n Notes
	var rest strings.Builder
	for tail := raw; ; {
		loc := phoneLabelRe.FindStringIndex(tail)
		if loc == nil {
			rest.WriteString(tail)
			break
		}
		span := phoneSpan(tail[loc[1]:])
		if span == 0 {
			rest.WriteString(tail[:loc[1]])
			tail = tail[loc[1]:]
			continue
		}
		if n.Phone == "" {
			n.Phone = strings.TrimSpace(tail[loc[1] : loc[1]+span])
		}
		rest.WriteString(tail[:loc[0]])
		tail = tail[loc[1]+span:]
	}
	n.Arrived = arrivedRe.MatchString(raw)

	body := statusMarkerRe.ReplaceAllString(rest.String(), "")
	var parts []string
	for _, seg := range strings.Split(body, "|") {
		if seg = strings.TrimSpace(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	n.Body = strings.Join(parts, noteSeparator)
	return n
}

// phoneSpan returns the length of the phone number at the start of s: a run
// of space-separated digit groups ending at "|", the end of s or free text.
// When free text follows, trailing groups of one or two bare digits belong to
// the text ("5599999999999 3 crianças").
func phoneSpan(s string) int {
	var ends []int
	var short []bool
	for pos := 0; pos < len(s); {
		start := pos
		for start < len(s) && s[start] == ' ' {
			start++
		}
		stop := start
		for stop < len(s) && s[stop] != ' ' && s[stop] != '|' {
			stop++
		}
		group := s[start:stop]
		if group == "" || !phoneGroupRe.MatchString(group) {
			break
		}
		ends = append(ends, stop)
		short = append(short, len(group) <= 2 && strings.Trim(group, "0123456789") == "")
		pos = stop
	}
	if len(ends) == 0 {
		return 0
	}
	if after := strings.TrimLeft(s[ends[len(ends)-1]:], " "); after != "" && after[0] != '|' {
		for len(ends) > 1 && short[len(ends)-1] {
			ends, short = ends[:len(ends)-1], short[:len(short)-1]
		}
	}
	return ends[len(ends)-1]
}

// EncodeNotes renders n back into the legacy notes encoding. Markers come
// first so that the body stays readable at the end.
func EncodeNotes(n Notes) string {
	var parts []string
	if n.Arrived {
		parts = append(parts, arrivedMarker)
	}
	if phone := strings.TrimSpace(n.Phone); phone != "" {
		parts = append(parts, phonePrefix+phone)
	}
	if body := DecodeNotes(n.Body).Body; body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, noteSeparator)
}

// DisplayNotes returns raw notes with the legacy markers stripped.
func DisplayNotes(raw string) string {
	return DecodeNotes(raw).Body
}
