package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Eursukkul/consultation-service/internal/calendar"
	"github.com/Eursukkul/consultation-service/internal/models"
)

const DefaultTimeout = 30 * time.Second

var errEffectFailed = errors.New("side effect failed")

type Effect string

const (
	EffectCalendar       Effect = "calendar"
	EffectEmail          Effect = "email"
	EffectCalendarUpdate Effect = "calendar_update"
	EffectCalendarDelete Effect = "calendar_delete"
)

// Outcome reports how one side effect for one consultation ended.
type Outcome struct {
	Effect         Effect
	ConsultationID string
	OK             bool
	Err            error
}

type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, c models.Consultation) error
}

// CalendarRecorder stores a created calendar event against its consultation.
type CalendarRecorder interface {
	RecordCalendarEvent(ctx context.Context, id, eventID, link string) error
}

type RecorderFunc func(ctx context.Context, id, eventID, link string) error

func (f RecorderFunc) RecordCalendarEvent(ctx context.Context, id, eventID, link string) error {
	return f(ctx, id, eventID, link)
}

// Dispatcher runs the post-booking side effects. Every failure is logged and
// never reaches the caller.
type Dispatcher struct {
	calendar calendar.Service
	mail     ConfirmationSender
	recorder CalendarRecorder
	log      *slog.Logger
	timeout  time.Duration
	outcomes chan<- Outcome
	wg       sync.WaitGroup
}

type Option func(*Dispatcher)

// WithOutcomes reports every finished effect on ch. Sends never block; a
// full channel drops the outcome.
func WithOutcomes(ch chan<- Outcome) Option {
	return func(d *Dispatcher) { d.outcomes = ch }
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func New(cal calendar.Service, mail ConfirmationSender, recorder CalendarRecorder, log *slog.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		calendar: cal,
		mail:     mail,
		recorder: recorder,
		log:      log.With("component", "dispatcher"),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts the calendar and email effects for a new booking and
// returns immediately. The effects outlive ctx's cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, c models.Consultation) {
	d.spawn(ctx, EffectCalendar, c.ID, func(ctx context.Context) error {
		ev := d.CreateCalendarEvent(ctx, c)
		if ev == nil {
			return errEffectFailed
		}
		d.record(ctx, c.ID, ev)
		return nil
	})
	d.spawn(ctx, EffectEmail, c.ID, func(ctx context.Context) error {
		if !d.SendConfirmation(ctx, c) {
			return errEffectFailed
		}
		return nil
	})
}

// CreateCalendarEvent returns nil when the event could not be created.
func (d *Dispatcher) CreateCalendarEvent(ctx context.Context, c models.Consultation) (ev *calendar.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "calendar event panicked", "consultation_id", c.ID, "panic", r)
			ev = nil
		}
	}()

	if d.calendar == nil {
		return nil
	}
	ev, err := d.calendar.Create(ctx, c)
	if err != nil {
		d.log.ErrorContext(ctx, "create calendar event", "consultation_id", c.ID, "error", err)
		return nil
	}
	d.log.InfoContext(ctx, "calendar event created",
		"consultation_id", c.ID, "reference", models.ReferenceNumber(c.ID), "event_id", ev.ID)
	return ev
}

// SendConfirmation reports whether the confirmation email was handed off.
func (d *Dispatcher) SendConfirmation(ctx context.Context, c models.Consultation) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "confirmation email panicked", "consultation_id", c.ID, "panic", r)
			ok = false
		}
	}()

	if d.mail == nil {
		return false
	}
	if c.Email == "" {
		d.log.InfoContext(ctx, "no email address, confirmation skipped", "consultation_id", c.ID)
		return false
	}
	if err := d.mail.SendConfirmation(ctx, c); err != nil {
		d.log.ErrorContext(ctx, "send confirmation email", "consultation_id", c.ID, "error", err)
		return false
	}
	d.log.InfoContext(ctx, "confirmation email sent",
		"consultation_id", c.ID, "reference", models.ReferenceNumber(c.ID))
	return true
}

// Rescheduled moves the consultation's calendar event to its new slot.
func (d *Dispatcher) Rescheduled(ctx context.Context, c models.Consultation) {
	d.spawn(ctx, EffectCalendarUpdate, c.ID, func(ctx context.Context) error {
		if d.calendar == nil {
			return errEffectFailed
		}
		ev, err := d.calendar.Update(ctx, c)
		if err != nil {
			d.log.ErrorContext(ctx, "update calendar event", "consultation_id", c.ID, "error", err)
			return err
		}
		if ev.ID != c.CalendarEventID || ev.Link != c.CalendarLink {
			d.record(ctx, c.ID, ev)
		}
		return nil
	})
}

// Cancelled removes the consultation's calendar event.
func (d *Dispatcher) Cancelled(ctx context.Context, c models.Consultation) {
	d.spawn(ctx, EffectCalendarDelete, c.ID, func(ctx context.Context) error {
		if d.calendar == nil {
			return errEffectFailed
		}
		if err := d.calendar.Delete(ctx, c); err != nil {
			d.log.ErrorContext(ctx, "delete calendar event", "consultation_id", c.ID, "error", err)
			return err
		}
		return nil
	})
}

// Wait blocks until every started effect has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) record(ctx context.Context, id string, ev *calendar.Event) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordCalendarEvent(ctx, id, ev.ID, ev.Link); err != nil {
		d.log.ErrorContext(ctx, "save calendar link", "consultation_id", id, "error", err)
	}
}

func (d *Dispatcher) spawn(parent context.Context, effect Effect, id string, run func(context.Context) error) {
	d.wg.Add(1)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)

	go func() {
		defer d.wg.Done()
		defer cancel()

		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.ErrorContext(ctx, "side effect panicked", "effect", effect, "consultation_id", id, "panic", r)
					err = fmt.Errorf("%s panicked: %v", effect, r)
				}
			}()
			err = run(ctx)
		}()

		d.report(Outcome{Effect: effect, ConsultationID: id, OK: err == nil, Err: err})
	}()
}

func (d *Dispatcher) report(o Outcome) {
	if d.outcomes == nil {
		return
	}
	select {
	case d.outcomes <- o:
	default:
		d.log.Warn("outcome dropped, channel full", "effect", o.Effect, "consultation_id", o.ConsultationID)
	}
}
