// Package bookingform drives the booking widget: date and slot selection,
// guest counts, submission and the confirmation hand-off.
//
// A Controller belongs to one session and is not safe for concurrent use.
package bookingform

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/party-bookings/internal/availability"
	"github.com/robertarktes/party-bookings/internal/confirmation"
	"github.com/robertarktes/party-bookings/internal/domain"
	"github.com/robertarktes/party-bookings/internal/observability"
)

type State uint8

const (
	Editing State = iota
	Submitting
	Succeeded
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	}
	return "unknown"
}

const (
	DefaultGuests = 20

	// SubmitFailedMessage is shown for every failed submission.
	SubmitFailedMessage = "Hubo un error al procesar tu reserva. Por favor intenta de nuevo."
	// NoSlotMessage is shown when submitting without a selected slot.
	NoSlotMessage = "Por favor selecciona un horario disponible."
)

var (
	ErrNoSlotSelected = errors.New("no time slot selected")
	ErrSlotOccupied   = errors.New("time slot is occupied")
	ErrUnknownSlot    = errors.New("unknown time slot")
	ErrNotEditing     = errors.New("form is not editable")
)

type AvailabilityQuerier interface {
	OccupiedSlots(ctx context.Context, date string) (availability.Availability, error)
}

type Creator interface {
	Create(ctx context.Context, nb domain.NewBooking) (domain.Booking, error)
}

type Draft struct {
	Date        string
	Time        string
	KidsCount   int
	AdultsCount int
	Comments    string
}

func (d Draft) toNewBooking() domain.NewBooking {
	return domain.NewBooking{
		Date:        d.Date,
		Time:        d.Time,
		KidsCount:   d.KidsCount,
		AdultsCount: d.AdultsCount,
		Comments:    strings.TrimSpace(d.Comments),
	}
}

type Options struct {
	Slots []string
	// Phone receives the WhatsApp confirmation message.
	Phone string
	Now   func() time.Time
}

type Controller struct {
	avail   AvailabilityQuerier
	creator Creator
	opts    Options
	logger  observability.Logger

	state    State
	draft    Draft
	occupied []string
	degraded bool
	message  string
	booking  domain.Booking
	link     string
}

// New returns a controller in the editing state with today's date and
// twenty kids and adults. Availability is not queried until SetDate or
// Refresh is called.
func New(avail AvailabilityQuerier, creator Creator, opts Options, logger observability.Logger) *Controller {
	if len(opts.Slots) == 0 {
		opts.Slots = domain.DefaultSlots
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		avail:   avail,
		creator: creator,
		opts:    opts,
		logger:  logger,
		draft: Draft{
			Date:        opts.Now().Format(domain.DateLayout),
			KidsCount:   DefaultGuests,
			AdultsCount: DefaultGuests,
		},
	}
}

func (c *Controller) State() State         { return c.state }
func (c *Controller) Draft() Draft         { return c.draft }
func (c *Controller) Occupied() []string   { return append([]string(nil), c.occupied...) }
func (c *Controller) Degraded() bool       { return c.degraded }
func (c *Controller) Message() string      { return c.message }
func (c *Controller) WhatsAppLink() string { return c.link }
func (c *Controller) Slots() []string      { return append([]string(nil), c.opts.Slots...) }

// Booking returns the created booking once the form has succeeded.
func (c *Controller) Booking() (domain.Booking, bool) {
	return c.booking, c.state == Succeeded
}

func (c *Controller) Free() []string {
	return domain.FreeSlots(c.opts.Slots, c.occupied)
}

func (c *Controller) editable() error {
	if c.state != Editing {
		return errors.Wrapf(ErrNotEditing, "state %s", c.state)
	}
	return nil
}

// SetDate changes the event date and re-queries availability.
func (c *Controller) SetDate(ctx context.Context, date string) error {
	if err := c.editable(); err != nil {
		return err
	}
	c.draft.Date = strings.TrimSpace(date)
	return c.Refresh(ctx)
}

// Refresh re-queries availability for the current date and drops the
// selected slot if someone else took it in the meantime.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.editable(); err != nil {
		return err
	}
	if c.draft.Date == "" {
		c.occupied = nil
		c.degraded = false
		return nil
	}
	a, err := c.avail.OccupiedSlots(ctx, c.draft.Date)
	if err != nil {
		return err
	}
	c.occupied = a.Occupied
	c.degraded = a.Degraded
	if c.draft.Time != "" && domain.ContainsSlot(c.occupied, c.draft.Time) {
		c.logger.WithField("date", c.draft.Date).WithField("time", c.draft.Time).
			Info("selected slot was taken, clearing selection")
		c.draft.Time = ""
	}
	return nil
}

func (c *Controller) SelectTime(slot string) error {
	if err := c.editable(); err != nil {
		return err
	}
	if !domain.ContainsSlot(c.opts.Slots, slot) {
		return errors.Wrapf(ErrUnknownSlot, "%q", slot)
	}
	if domain.ContainsSlot(c.occupied, slot) {
		return errors.Wrapf(ErrSlotOccupied, "%s %s", c.draft.Date, slot)
	}
	c.draft.Time = slot
	return nil
}

func (c *Controller) SetComments(comments string) {
	if c.state == Editing {
		c.draft.Comments = comments
	}
}

func clamp(n int) int {
	if n < domain.MinGuests {
		return domain.MinGuests
	}
	if n > domain.MaxGuests {
		return domain.MaxGuests
	}
	return n
}

func (c *Controller) SetKids(n int) {
	if c.state == Editing {
		c.draft.KidsCount = clamp(n)
	}
}

func (c *Controller) SetAdults(n int) {
	if c.state == Editing {
		c.draft.AdultsCount = clamp(n)
	}
}

func (c *Controller) IncKids()   { c.SetKids(c.draft.KidsCount + 1) }
func (c *Controller) DecKids()   { c.SetKids(c.draft.KidsCount - 1) }
func (c *Controller) IncAdults() { c.SetAdults(c.draft.AdultsCount + 1) }
func (c *Controller) DecAdults() { c.SetAdults(c.draft.AdultsCount - 1) }

// Submit creates the booking. Without a selected slot it fails with
// ErrNoSlotSelected before contacting the server. On any other failure the
// form stays editable and Message holds a generic error text.
func (c *Controller) Submit(ctx context.Context) (domain.Booking, error) {
	if err := c.editable(); err != nil {
		return domain.Booking{}, err
	}
	if c.draft.Time == "" {
		c.message = NoSlotMessage
		return domain.Booking{}, ErrNoSlotSelected
	}

	c.state = Submitting
	c.message = ""
	b, err := c.creator.Create(ctx, c.draft.toNewBooking())
	if err != nil {
		c.state = Editing
		c.message = SubmitFailedMessage
		c.logger.WithError(err).Error("booking submission failed")
		return domain.Booking{}, err
	}

	c.state = Succeeded
	c.booking = b
	c.link = confirmation.Link(b, c.opts.Phone)
	return b, nil
}

// Modify starts over with a blank draft.
func (c *Controller) Modify() {
	c.state = Editing
	c.draft = Draft{KidsCount: DefaultGuests, AdultsCount: DefaultGuests}
	c.booking = domain.Booking{}
	c.link = ""
	c.message = ""
	c.occupied = nil
	c.degraded = false
}
