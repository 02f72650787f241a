package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"reservas-backend/internal/metrics"
	"reservas-backend/internal/model"
	"reservas-backend/internal/notification"
	"reservas-backend/internal/parse"
	"reservas-backend/internal/realtime"
	"reservas-backend/internal/store"
)

// ErrInvalidDate is returned by SetActiveDate for a date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// DefaultGuestCount is used when a save request leaves the guest count empty.
const DefaultGuestCount = 2

// Alerter receives staff alerts after confirmed writes.
type Alerter interface {
	Dispatch(alert notification.Alert)
}

// SaveRequest is the content of the reservation dialog for one table of the
// active date. Zero values for time and guests take the shift defaults.
type SaveRequest struct {
	Shift           model.Shift
	TableNumber     int
	ClientName      string
	GuestCount      int
	ReservationTime string
	Phone           string
	Notes           string
}

// Controller owns the active date. It keeps the Cache in step with the
// remote store through full refetches, realtime merges and a periodic
// resync, and routes every write through the store followed by a refetch.
type Controller struct {
	store         store.Store
	feed          realtime.Feed
	alerts        Alerter
	cache         *Cache
	merger        *Merger
	publishWrites bool
	log           zerolog.Logger

	// mu serialises date switches and guards the subscription fields.
	mu      sync.Mutex
	sub     realtime.Subscription
	subDone chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithFeed enables realtime merging from feed.
func WithFeed(feed realtime.Feed) Option {
	return func(c *Controller) { c.feed = feed }
}

// WithAlerts sends staff alerts after confirmed writes.
func WithAlerts(a Alerter) Option {
	return func(c *Controller) { c.alerts = a }
}

// WithPublishWrites announces confirmed writes on the feed.
func WithPublishWrites(enabled bool) Option {
	return func(c *Controller) { c.publishWrites = enabled }
}

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates a controller with no active date.
func NewController(s store.Store, opts ...Option) *Controller {
	c := &Controller{
		store: s,
		cache: NewCache(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.merger = NewMerger(c.cache, c.log)
	c.log = c.log.With().Str("component", "controller").Logger()
	return c
}

// Cache returns the read side of the controller.
func (c *Controller) Cache() *Cache {
	return c.cache
}

// ActiveDate returns the date currently being reconciled.
func (c *Controller) ActiveDate() string {
	return c.cache.Date()
}

// SetActiveDate switches to date: the previous subscription is closed
// before the cache is cleared, a subscription for date is opened and the
// cache is filled by a full refetch. A failed subscription is logged and the
// periodic resync takes over; a failed refetch is returned.
func (c *Controller) SetActiveDate(ctx context.Context, date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	c.mu.Lock()
	c.closeSubscriptionLocked()
	c.cache.Reset(date)
	if c.feed != nil {
		sub, err := c.feed.Subscribe(ctx, date)
		if err != nil {
			c.log.Warn().Err(err).Str("date", date).Msg("realtime subscription failed")
		} else {
			c.sub = sub
			c.subDone = make(chan struct{})
			go c.consume(date, sub, c.subDone)
		}
	}
	c.mu.Unlock()

	c.log.Info().Str("date", date).Msg("active date changed")
	return c.Refetch(ctx)
}

// closeSubscriptionLocked must be called with mu held. It returns once the
// consumer goroutine has stopped, so no event of the old date can be
// applied afterwards.
func (c *Controller) closeSubscriptionLocked() {
	if c.sub == nil {
		return
	}
	if err := c.sub.Close(); err != nil {
		c.log.Debug().Err(err).Msg("closing realtime subscription")
	}
	<-c.subDone
	c.sub, c.subDone = nil, nil
}

func (c *Controller) consume(date string, sub realtime.Subscription, done chan struct{}) {
	defer close(done)
	for ev := range sub.Events() {
		c.merger.Apply(date, ev)
	}
}

// Refetch replaces the cache with a freshly normalized fetch of the active
// date. A fetch that resolves after the date changed is discarded. On error
// the cache keeps its last known good state.
func (c *Controller) Refetch(ctx context.Context) error {
	date := c.cache.Date()
	if date == "" {
		return nil
	}

	start := time.Now()
	rows, err := c.store.FetchByDate(ctx, date)
	metrics.ObserveRefetch(time.Since(start))
	if err != nil {
		return err
	}
	if !c.cache.Replace(date, parse.NormalizeAll(rows)) {
		c.log.Debug().Str("date", date).Msg("discarding refetch for inactive date")
	}
	return nil
}

// Save creates or overwrites the reservation at (shift, table) on the
// active date. A request without a table is ignored.
func (c *Controller) Save(ctx context.Context, req SaveRequest) error {
	if req.TableNumber == 0 {
		return nil
	}

	r := model.Reservation{
		Date:            c.cache.Date(),
		Shift:           req.Shift,
		TableNumber:     req.TableNumber,
		ClientName:      strings.TrimSpace(req.ClientName),
		GuestCount:      req.GuestCount,
		ReservationTime: strings.TrimSpace(req.ReservationTime),
		Phone:           strings.TrimSpace(req.Phone),
		Notes:           strings.TrimSpace(req.Notes),
	}
	if r.GuestCount == 0 {
		r.GuestCount = DefaultGuestCount
	}
	if r.ReservationTime == "" {
		r.ReservationTime = r.Shift.DefaultTime()
	}

	eventType := realtime.EventInsert
	if existing, ok := c.cache.Lookup(r.Shift, r.TableNumber); ok {
		r.ID = existing.ID
		// Keep the arrival marker of a guest that already arrived.
		if existing.Arrived && !parse.DecodeNotes(r.Notes).Arrived {
			r.Arrived = true
		}
		eventType = realtime.EventUpdate
	}

	if err := c.store.Upsert(ctx, r); err != nil {
		return err
	}
	if err := c.Refetch(ctx); err != nil {
		return err
	}

	committed, ok := c.cache.Lookup(r.Shift, r.TableNumber)
	if !ok {
		committed = r
	}
	c.announce(ctx, realtime.ChangeEvent{EventType: eventType, New: rowOf(committed)})
	c.alert(notification.BookingAlert(committed))
	return nil
}

// Delete removes the reservation at (shift, table) on the active date.
func (c *Controller) Delete(ctx context.Context, shift model.Shift, table int) error {
	if table == 0 {
		return nil
	}
	date := c.cache.Date()
	existing, known := c.cache.Lookup(shift, table)

	if err := c.store.Delete(ctx, date, shift, table); err != nil {
		return err
	}
	if err := c.Refetch(ctx); err != nil {
		return err
	}

	if known {
		c.announce(ctx, realtime.ChangeEvent{EventType: realtime.EventDelete, Old: &model.Row{ID: existing.ID, Date: date}})
	}
	c.alert(notification.CancellationAlert(date, shift, table))
	return nil
}

// MarkArrived records that the guests at (shift, table) arrived, keeping
// the phone and notes already on the reservation.
func (c *Controller) MarkArrived(ctx context.Context, shift model.Shift, table int) error {
	if table == 0 {
		return nil
	}
	date := c.cache.Date()
	existing, ok := c.cache.Lookup(shift, table)
	if !ok {
		return store.ErrNotFound
	}

	if err := c.store.MarkArrived(ctx, date, shift, table, existing.Phone, existing.Notes); err != nil {
		return err
	}
	if err := c.Refetch(ctx); err != nil {
		return err
	}

	committed, ok := c.cache.Lookup(shift, table)
	if !ok {
		return nil
	}
	c.announce(ctx, realtime.ChangeEvent{EventType: realtime.EventUpdate, New: rowOf(committed)})
	c.alert(notification.ArrivalAlert(committed))
	return nil
}

// Run refetches the active date every interval until ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	c.log.Info().Dur("interval", interval).Msg("starting resync loop")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("resync loop shutting down")
			return
		case <-timer.C:
			if err := c.Refetch(ctx); err != nil && ctx.Err() == nil {
				c.log.Error().Err(err).Str("date", c.cache.Date()).Msg("periodic refetch failed")
			}
			timer.Reset(interval)
		}
	}
}

// Close stops the realtime subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeSubscriptionLocked()
}

func (c *Controller) announce(ctx context.Context, ev realtime.ChangeEvent) {
	if c.feed == nil || !c.publishWrites {
		return
	}
	if err := c.feed.Publish(ctx, ev); err != nil {
		c.log.Warn().Err(err).Str("type", string(ev.EventType)).Msg("failed to announce write")
	}
}

func (c *Controller) alert(a notification.Alert) {
	if c.alerts != nil {
		c.alerts.Dispatch(a)
	}
}

func rowOf(r model.Reservation) *model.Row {
	row := parse.ToRow(r, string(r.Shift))
	return &row
}
