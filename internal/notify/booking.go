package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// BookingNotice is the admin alert for a new appointment. Name, Email and Message come
// from the visitor.
type BookingNotice struct {
	Name     string
	Email    string
	Message  string
	Date     string
	Time     string
	Timezone string
}

var bookingHTML = template.Must(template.New("booking").Parse(
	`<p>New appointment with <strong>{{.Name}}</strong> &lt;<a href="mailto:{{.Email}}">{{.Email}}</a>&gt;</p>
<p>{{.Date}} at {{.Time}} ({{.Timezone}})</p>
{{- if .Message}}
<p>Message:</p>
<blockquote>{{.Message}}</blockquote>
{{- end}}
`))

// Message renders the notice for the admin mailbox. The HTML part escapes every
// visitor field.
func (n BookingNotice) Message(to string) (EmailMessage, error) {
	var buf bytes.Buffer
	if err := bookingHTML.Execute(&buf, n); err != nil {
		return EmailMessage{}, fmt.Errorf("render booking notice: %w", err)
	}

	body := fmt.Sprintf("New appointment with %s <%s> on %s at %s (%s).",
		n.Name, n.Email, n.Date, n.Time, n.Timezone)
	if n.Message != "" {
		body += "\n\nMessage:\n" + n.Message
	}

	return EmailMessage{
		To:      to,
		Subject: "New appointment: " + oneLine(n.Name) + " on " + n.Date + " " + n.Time,
		Body:    body,
		HTML:    buf.String(),
	}, nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
