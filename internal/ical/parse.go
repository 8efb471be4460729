/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ical reads and writes the subset of iCalendar (RFC 5545) needed to
// load busy time and publish free time.
package ical

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidData marks input that is not usable iCalendar data.
	ErrInvalidData = errors.New("invalid iCalendar data")
	// ErrNoCalendar is returned when the input has no VCALENDAR component.
	ErrNoCalendar = fmt.Errorf("%w: no VCALENDAR found", ErrInvalidData)
)

// Event is a parsed VEVENT.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Status      string
	Transparent bool
	Attendees   []Attendee

	// Err is the first property of the event that failed to parse.
	Err error
}

// Attendee is a parsed ATTENDEE property.
type Attendee struct {
	Name  string
	Email string
}

// Blocks reports whether the event should count as busy time.
func (e Event) Blocks() bool {
	return !e.Transparent && !strings.EqualFold(e.Status, "CANCELLED")
}

// property is one content line split into name, parameters and value.
type property struct {
	name   string
	params map[string]string
	value  string
}

// Parse reads VEVENTs from r. Floating times and dates are placed in loc.
// A malformed event is returned with Err set; it does not fail the document.
func Parse(r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.Local
	}

	lines, err := unfold(r)
	if err != nil {
		return nil, err
	}

	var (
		events   []Event
		current  *Event
		duration time.Duration
		hasEnd   bool
		sawCal   bool
		depth    int // nesting inside VEVENT (VALARM etc.)
	)

	for _, line := range lines {
		p, ok := parseProperty(line)
		if !ok {
			continue
		}

		switch {
		case p.name == "BEGIN" && strings.EqualFold(p.value, "VCALENDAR"):
			sawCal = true
			continue
		case p.name == "BEGIN" && strings.EqualFold(p.value, "VEVENT") && current == nil:
			current = &Event{}
			duration, hasEnd, depth = 0, false, 0
			continue
		case p.name == "BEGIN" && current != nil:
			depth++
			continue
		case p.name == "END" && current != nil && depth > 0:
			depth--
			continue
		case p.name == "END" && strings.EqualFold(p.value, "VEVENT") && current != nil:
			if !hasEnd && !current.Start.IsZero() {
				switch {
				case duration > 0:
					current.End = current.Start.Add(duration)
				case current.AllDay:
					current.End = current.Start.AddDate(0, 0, 1)
				default:
					current.End = current.Start
				}
			}
			events = append(events, *current)
			current = nil
			continue
		}

		if current == nil || depth > 0 {
			continue
		}

		switch p.name {
		case "UID":
			current.UID = strings.TrimSpace(p.value)
		case "SUMMARY":
			current.Summary = unescapeText(p.value)
		case "DESCRIPTION":
			current.Description = unescapeText(p.value)
		case "LOCATION":
			current.Location = unescapeText(p.value)
		case "STATUS":
			current.Status = strings.ToUpper(strings.TrimSpace(p.value))
		case "TRANSP":
			current.Transparent = strings.EqualFold(strings.TrimSpace(p.value), "TRANSPARENT")
		case "DTSTART":
			t, allDay, err := parseTime(p, loc)
			if err != nil {
				current.fail(fmt.Errorf("DTSTART: %w", err))
				continue
			}
			current.Start, current.AllDay = t, allDay
		case "DTEND":
			t, _, err := parseTime(p, loc)
			if err != nil {
				current.fail(fmt.Errorf("DTEND: %w", err))
				continue
			}
			current.End, hasEnd = t, true
		case "DURATION":
			d, err := parseDuration(p.value)
			if err != nil {
				current.fail(err)
				continue
			}
			duration = d
		case "ATTENDEE":
			if a, ok := parseAttendee(p); ok {
				current.Attendees = append(current.Attendees, a)
			}
		}
	}

	if !sawCal {
		return nil, ErrNoCalendar
	}
	return events, nil
}

func (e *Event) fail(err error) {
	if e.Err == nil {
		e.Err = err
	}
}

// unfold joins continuation lines (those starting with a space or tab).
func unfold(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
		return nil, fmt.Errorf("read iCal data: %w", err)
	}
	return lines, nil
}

func parseProperty(line string) (property, bool) {
	// The value starts at the first colon outside a quoted parameter.
	inQuotes := false
	colon := -1
	for i, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
		} else if r == ':' && !inQuotes {
			colon = i
			break
		}
	}
	if colon <= 0 {
		return property{}, false
	}

	head, value := line[:colon], line[colon+1:]
	parts := splitParams(head)
	p := property{
		name:   strings.ToUpper(parts[0]),
		params: make(map[string]string, len(parts)-1),
		value:  value,
	}
	for _, param := range parts[1:] {
		k, v, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		p.params[strings.ToUpper(k)] = strings.Trim(v, `"`)
	}
	return p, true
}

func splitParams(head string) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i, r := range head {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ';' && !inQuotes:
			parts = append(parts, head[start:i])
			start = i + 1
		}
	}
	return append(parts, head[start:])
}

// parseTime handles UTC, TZID-qualified, floating and VALUE=DATE forms.
func parseTime(p property, loc *time.Location) (time.Time, bool, error) {
	value := strings.TrimSpace(p.value)

	if strings.EqualFold(p.params["VALUE"], "DATE") || (len(value) == 8 && !strings.Contains(value, "T")) {
		t, err := time.ParseInLocation("20060102", value, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid date %q", value)
		}
		return t, true, nil
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid UTC time %q", value)
		}
		return t, false, nil
	}

	if tzid := p.params["TZID"]; tzid != "" {
		if tz, err := time.LoadLocation(tzid); err == nil {
			loc = tz
		}
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid time %q", value)
	}
	return t, false, nil
}

var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDuration parses an RFC 5545 DURATION such as PT1H30M or P1D.
func parseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	seen := false
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		seen = true
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		d += time.Duration(n) * unit
	}
	if !seen {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

func parseAttendee(p property) (Attendee, bool) {
	value := strings.TrimSpace(p.value)
	email := ""
	if len(value) > len("mailto:") && strings.EqualFold(value[:len("mailto:")], "mailto:") {
		email = value[len("mailto:"):]
	}
	if email == "" {
		email = p.params["EMAIL"]
	}
	name := p.params["CN"]
	if email == "" && name == "" {
		return Attendee{}, false
	}
	return Attendee{Name: name, Email: email}, true
}
