package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
)

// SessionLength is the duration of every consultation event.
const SessionLength = time.Hour

var ErrNoSchedule = errors.New("consultation has no scheduled date")

type Event struct {
	ID   string
	Link string
}

// Service manages the calendar entry of a consultation.
type Service interface {
	Create(ctx context.Context, c models.Consultation) (*Event, error)
	Update(ctx context.Context, c models.Consultation) (*Event, error)
	Delete(ctx context.Context, c models.Consultation) error
}

type entry struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

func newEntry(c models.Consultation, loc *time.Location) (entry, error) {
	if c.ScheduledDate == nil {
		return entry{}, ErrNoSchedule
	}
	if loc == nil {
		loc = time.UTC
	}
	start := c.ScheduledDate.In(loc)

	concerns := c.Concerns
	if strings.TrimSpace(concerns) == "" {
		concerns = "N/A"
	}
	description := fmt.Sprintf(
		"Consultation Type: %s\nReference: %s\nAge: %d\nGender: %s\nConcerns: %s",
		typeLabel(c.ConsultationType), models.ReferenceNumber(c.ID), c.Age, c.Gender, concerns,
	)

	return entry{
		Title:       fmt.Sprintf("Consultation - %s (%s)", c.Name, c.ConsultationType),
		Description: description,
		Start:       start,
		End:         start.Add(SessionLength),
	}, nil
}

func typeLabel(t models.ConsultationType) string {
	switch t {
	case models.TypeSkin:
		return "Skin Care"
	case models.TypeHair:
		return "Hair Care"
	}
	return string(t)
}

// LinkCalendar produces an add-to-calendar template link instead of creating
// a hosted event. Update returns a fresh link and Delete is a no-op.
type LinkCalendar struct {
	loc *time.Location
}

func NewLinkCalendar(loc *time.Location) *LinkCalendar {
	return &LinkCalendar{loc: loc}
}

func (l *LinkCalendar) Create(_ context.Context, c models.Consultation) (*Event, error) {
	e, err := newEntry(c, l.loc)
	if err != nil {
		return nil, err
	}
	return &Event{ID: "link-" + c.ID, Link: templateLink(e)}, nil
}

func (l *LinkCalendar) Update(ctx context.Context, c models.Consultation) (*Event, error) {
	return l.Create(ctx, c)
}

func (l *LinkCalendar) Delete(context.Context, models.Consultation) error {
	return nil
}

const templateBase = "https://calendar.google.com/calendar/render"

func templateLink(e entry) string {
	const stamp = "20060102T150405Z"
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", e.Title)
	q.Set("dates", e.Start.UTC().Format(stamp)+"/"+e.End.UTC().Format(stamp))
	q.Set("details", e.Description)
	return templateBase + "?" + q.Encode()
}
