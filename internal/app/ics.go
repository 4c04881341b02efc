package app

import (
	"fmt"
	"strconv"
	"strings"
)

// The exporter renders RFC 5545 VCALENDAR documents by hand. The feed
// bytes are a contract with third-party calendar clients (property
// order, the VTIMEZONE block, line folding), which is why this is not
// delegated to a library; the library the department uses elsewhere for
// ICS parsing verifies this output in tests instead.

const (
	icsProdID = "-//oncall-roster//Residency On-Call//EN"
	// icsFoldAt is the number of characters kept on the first physical
	// line of a foldable property; continuations carry one leading space.
	icsFoldAt = 70

	icsTimestampLayout = "20060102T150405Z"
	icsLocalLayout     = "20060102T150405"
)

// jerusalemVTimezone is the static transition-rule block for the system
// timezone: IST +02:00 standard, IDT +03:00 daylight, switching on the
// Friday before the last Sunday of March and the last Sunday of October.
var jerusalemVTimezone = []string{
	"BEGIN:VTIMEZONE",
	"TZID:Asia/Jerusalem",
	"BEGIN:DAYLIGHT",
	"TZOFFSETFROM:+0200",
	"TZOFFSETTO:+0300",
	"TZNAME:IDT",
	"DTSTART:19700327T020000",
	"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1FR",
	"END:DAYLIGHT",
	"BEGIN:STANDARD",
	"TZOFFSETFROM:+0300",
	"TZOFFSETTO:+0200",
	"TZNAME:IST",
	"DTSTART:19701025T020000",
	"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU",
	"END:STANDARD",
	"END:VTIMEZONE",
}

// vtimezoneBlocks holds the static VTIMEZONE reference data per supported
// zone. The engine runs with a single fixed zone; feeds for an
// unconfigured zone simply omit the block.
var vtimezoneBlocks = map[string][]string{
	"Asia/Jerusalem": jerusalemVTimezone,
}

// CalendarExporter renders event lists into subscribable ICS documents.
// It is stateless and performs no I/O; callers must supply events with
// valid local start/end times (End after Start) and stable UIDs.
type CalendarExporter struct {
	TZID string
	Now  Clock
}

// Render produces the complete VCALENDAR document, CRLF-joined, for a
// display name and an ordered event list.
func (e *CalendarExporter) Render(name string, events []CalendarEvent) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + icsProdID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	lines = append(lines, foldLine("X-WR-CALNAME:"+escapeText(name))...)
	lines = append(lines, vtimezoneBlocks[e.TZID]...)

	dtstamp := e.Now().UTC().Format(icsTimestampLayout)
	for _, ev := range events {
		lines = append(lines, "BEGIN:VEVENT")
		lines = append(lines, "UID:"+ev.UID)
		lines = append(lines, "DTSTAMP:"+dtstamp)
		lines = append(lines, fmt.Sprintf("DTSTART;TZID=%s:%s", e.TZID, ev.Start.Format(icsLocalLayout)))
		lines = append(lines, fmt.Sprintf("DTEND;TZID=%s:%s", e.TZID, ev.End.Format(icsLocalLayout)))
		lines = append(lines, foldLine("SUMMARY:"+escapeText(ev.Title))...)
		if ev.Description != "" {
			lines = append(lines, foldLine("DESCRIPTION:"+escapeText(ev.Description))...)
		}
		if ev.URL != "" {
			lines = append(lines, "URL:"+ev.URL)
		}
		lines = append(lines, "END:VEVENT")
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// foldLine splits a content line into physical lines of at most 70
// characters plus a one-space continuation prefix. Folding happens on
// runes so multi-byte labels never get split mid-character.
func foldLine(line string) []string {
	runes := []rune(line)
	if len(runes) <= icsFoldAt {
		return []string{line}
	}
	out := []string{string(runes[:icsFoldAt])}
	for rest := runes[icsFoldAt:]; len(rest) > 0; {
		n := icsFoldAt
		if n > len(rest) {
			n = len(rest)
		}
		out = append(out, " "+string(rest[:n]))
		rest = rest[n:]
	}
	return out
}

// escapeText applies RFC 5545 TEXT escaping.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// HashString is a small deterministic polynomial rolling hash used to
// derive reproducible UID suffixes from semantically meaningful fields.
// Calendar clients deduplicate by UID, so the same logical event must
// hash identically on every export.
func HashString(s string) string {
	var h uint32
	for _, r := range s {
		h = h*31 + uint32(r)
	}
	return strconv.FormatUint(uint64(h), 36)
}

// EventUID builds a stable per-event identifier from its identity fields.
func EventUID(parts ...string) string {
	return "shift-" + HashString(strings.Join(parts, "|")) + "@oncall-roster"
}
