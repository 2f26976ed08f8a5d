package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
)

var ErrNoRecipient = errors.New("consultation has no email address")

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h1>Consultation Confirmed!</h1>
<p>Dear {{.Name}},</p>
<p>Your {{.Type}} consultation has been successfully booked.</p>
<p><strong>Reference Number:</strong> {{.Reference}}</p>
<p><strong>Scheduled Date:</strong> {{.Date}}</p>
<p><strong>Scheduled Time:</strong> {{.Time}}</p>
{{if .CalendarLink}}<p><a href="{{.CalendarLink}}">Add to calendar</a></p>
{{end}}<p>We look forward to helping you!</p>
`))

	reminderTmpl = template.Must(template.New("reminder").Parse(`<h1>Your consultation is coming up</h1>
<p>Dear {{.Name}},</p>
<p>This is a reminder of your {{.Type}} consultation.</p>
<p><strong>Reference Number:</strong> {{.Reference}}</p>
<p><strong>Scheduled Date:</strong> {{.Date}}</p>
<p><strong>Scheduled Time:</strong> {{.Time}}</p>
`))
)

type view struct {
	Name         string
	Type         string
	Reference    string
	Date         string
	Time         string
	CalendarLink string
}

// Mailer renders consultation emails and hands them to a Transport.
type Mailer struct {
	transport Transport
	loc       *time.Location
}

func New(transport Transport, loc *time.Location) *Mailer {
	if loc == nil {
		loc = time.UTC
	}
	return &Mailer{transport: transport, loc: loc}
}

func (m *Mailer) SendConfirmation(ctx context.Context, c models.Consultation) error {
	ref := models.ReferenceNumber(c.ID)
	return m.send(ctx, c, confirmationTmpl, "Consultation Confirmed - "+ref)
}

func (m *Mailer) SendReminder(ctx context.Context, c models.Consultation) error {
	ref := models.ReferenceNumber(c.ID)
	return m.send(ctx, c, reminderTmpl, "Consultation Reminder - "+ref)
}

func (m *Mailer) send(ctx context.Context, c models.Consultation, tmpl *template.Template, subject string) error {
	if c.Email == "" {
		return ErrNoRecipient
	}

	v := view{
		Name:         c.Name,
		Type:         string(c.ConsultationType),
		Reference:    models.ReferenceNumber(c.ID),
		Date:         "To be confirmed",
		Time:         "To be confirmed",
		CalendarLink: c.CalendarLink,
	}
	if c.ScheduledDate != nil {
		v.Date = c.ScheduledDate.In(m.loc).Format("Monday, 2 January 2006")
	}
	if c.ScheduledTime != nil {
		v.Time = *c.ScheduledTime
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, v); err != nil {
		return fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return m.transport.Send(ctx, Message{To: c.Email, Subject: subject, HTML: body.String()})
}

// LogTransport records messages in the log instead of delivering them.
type LogTransport struct {
	log *slog.Logger
}

func NewLogTransport(log *slog.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.log.InfoContext(ctx, "email not delivered, no SMTP configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
