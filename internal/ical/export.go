/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ical

import (
	"fmt"
	"strings"
	"time"

	"github.com/kljensen/icaltoday/internal/interval"
)

// ContentType is the MIME type of exported documents.
const ContentType = "text/calendar; charset=utf-8"

// ExportFree renders free intervals as an iCalendar document with one VEVENT
// per interval. UIDs derive from the interval so re-exports are stable.
func ExportFree(name string, free []interval.Interval, now time.Time) []byte {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//icaltoday//Availability Export//EN")
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")
	if name != "" {
		writeLine(&b, "X-WR-CALNAME:"+escapeText(name))
	}

	stamp := formatTime(now)
	for _, iv := range free {
		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, fmt.Sprintf("UID:free-%s-%s@icaltoday", formatTime(iv.Start), formatTime(iv.End)))
		writeLine(&b, "DTSTAMP:"+stamp)
		writeLine(&b, "DTSTART:"+formatTime(iv.Start))
		writeLine(&b, "DTEND:"+formatTime(iv.End))
		writeLine(&b, "SUMMARY:Free")
		writeLine(&b, "TRANSP:TRANSPARENT")
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return []byte(b.String())
}
