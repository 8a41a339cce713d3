// Package email renders the ingestion summary sent back to travelers.
package email

import (
	"fmt"
	"html"
	"strings"

	"itinera/internal/domain"
)

// Summary is a rendered ingestion summary message.
type Summary struct {
	Subject string
	Text    string
	HTML    string
}

// RenderSummary builds the reply to a forwarded email. originalSubject may be empty.
func RenderSummary(originalSubject string, result *domain.IngestionResult, frontendURL string) Summary {
	subject := "Itinera: " + result.Message
	if originalSubject != "" {
		subject = "Re: " + originalSubject
	}
	tripsURL := strings.TrimRight(frontendURL, "/") + "/trips"

	var text strings.Builder
	text.WriteString(result.Message + "\n\n")
	for _, t := range result.Trips {
		verb := "New trip"
		if t.Merged {
			verb = "Updated"
		}
		fmt.Fprintf(&text, "- %s: %s (%s to %s), %d booking(s) added\n",
			verb, t.Name, t.StartDate, t.EndDate, t.BookingCount)
	}
	if len(result.Trips) > 0 {
		text.WriteString("\n")
	}
	fmt.Fprintf(&text, "View your trips: %s\n\nItinera", tripsURL)

	var rows strings.Builder
	for _, t := range result.Trips {
		verb := "New trip"
		if t.Merged {
			verb = "Updated"
		}
		fmt.Fprintf(&rows, `<li><strong>%s</strong>: %s <span style="color: #666;">(%s to %s)</span>, %d booking(s) added</li>`,
			verb, html.EscapeString(t.Name), t.StartDate, t.EndDate, t.BookingCount)
	}
	list := ""
	if rows.Len() > 0 {
		list = "<ul>" + rows.String() + "</ul>"
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <p>%s</p>
  %s
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View Trips</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Itinera - Trip Consolidation</p>
</body>
</html>`, html.EscapeString(result.Message), list, html.EscapeString(tripsURL))

	return Summary{Subject: subject, Text: text.String(), HTML: body}
}
