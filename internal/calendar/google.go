package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	emailReminderMinutes = 24 * 60
	popupReminderMinutes = 30
)

// GoogleCalendar writes consultation events to a Google calendar using a
// service account.
type GoogleCalendar struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
}

func NewGoogleCalendar(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*GoogleCalendar, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("google calendar client: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleCalendar{events: svc.Events, calendarID: calendarID, loc: loc}, nil
}

func (g *GoogleCalendar) Create(ctx context.Context, c models.Consultation) (*Event, error) {
	ev, err := g.toEvent(c)
	if err != nil {
		return nil, err
	}
	created, err := g.events.Insert(g.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	return &Event{ID: created.Id, Link: created.HtmlLink}, nil
}

func (g *GoogleCalendar) Update(ctx context.Context, c models.Consultation) (*Event, error) {
	if c.CalendarEventID == "" {
		return g.Create(ctx, c)
	}
	ev, err := g.toEvent(c)
	if err != nil {
		return nil, err
	}
	updated, err := g.events.Update(g.calendarID, c.CalendarEventID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("update calendar event %s: %w", c.CalendarEventID, err)
	}
	return &Event{ID: updated.Id, Link: updated.HtmlLink}, nil
}

func (g *GoogleCalendar) Delete(ctx context.Context, c models.Consultation) error {
	if c.CalendarEventID == "" {
		return nil
	}
	if err := g.events.Delete(g.calendarID, c.CalendarEventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", c.CalendarEventID, err)
	}
	return nil
}

func (g *GoogleCalendar) toEvent(c models.Consultation) (*gcal.Event, error) {
	e, err := newEntry(c, g.loc)
	if err != nil {
		return nil, err
	}

	ev := &gcal.Event{
		Summary:     e.Title,
		Description: e.Description,
		Start:       &gcal.EventDateTime{DateTime: e.Start.Format(time.RFC3339), TimeZone: g.loc.String()},
		End:         &gcal.EventDateTime{DateTime: e.End.Format(time.RFC3339), TimeZone: g.loc.String()},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: emailReminderMinutes},
				{Method: "popup", Minutes: popupReminderMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if c.Email != "" {
		ev.Attendees = []*gcal.EventAttendee{{Email: c.Email}}
	}
	return ev, nil
}
