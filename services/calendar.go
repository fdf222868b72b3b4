package services

import (
	"fmt"
	"jetlex_app_go/models"
	"strings"
	"time"
)

const icsDateFormat = "20060102T150405Z"

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// GenerateEventICS builds an ICS calendar file for one event
func GenerateEventICS(event *models.Event, organizerName, organizerEmail string, now time.Time) ([]byte, error) {
	if event == nil || event.ID == "" {
		return nil, Validation("id", "event is required")
	}

	description := event.Description
	if event.Case != nil {
		description = strings.TrimSpace(fmt.Sprintf("Expediente %s\n\n%s", event.Case.Number, description))
	}
	if event.Notes != "" {
		description += fmt.Sprintf("\n\nNotas: %s", event.Notes)
	}

	status := "CONFIRMED"
	if event.Status == models.EventStatusCancelado {
		status = "CANCELLED"
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Jetlex//ANAC Intelligence//ES",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + event.ID + "@jetlex",
		"DTSTAMP:" + now.UTC().Format(icsDateFormat),
		"DTSTART:" + event.StartsAt.UTC().Format(icsDateFormat),
		"DTEND:" + event.EndsAt.UTC().Format(icsDateFormat),
		"SUMMARY:" + icsEscaper.Replace(event.Title),
		"DESCRIPTION:" + icsEscaper.Replace(description),
	}
	if event.Location != "" {
		lines = append(lines, "LOCATION:"+icsEscaper.Replace(event.Location))
	}
	if organizerEmail != "" {
		lines = append(lines, fmt.Sprintf("ORGANIZER;CN=\"%s\":mailto:%s", organizerName, organizerEmail))
	}
	for _, p := range event.Participants {
		if ValidateEmail(p) {
			lines = append(lines, "ATTENDEE;ROLE=REQ-PARTICIPANT:mailto:"+p)
		}
	}
	lines = append(lines,
		"STATUS:"+status,
		"END:VEVENT",
		"END:VCALENDAR",
	)

	// RFC 5545 wants CRLF line endings
	return []byte(strings.Join(lines, "\r\n")), nil
}
