package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
)

const waitingDaysSlot = "waitingDays"

// CommissionSource resolves the server-side commission terms of a service.
type CommissionSource interface {
	BaseCommission(ctx context.Context, serviceID string) (decimal.Decimal, error)
	CommissionByDay(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error)
}

// Draft is an in-memory transaction form. Every setter leaves the draft in a
// state Preview can render; remote terms resolve in the background.
type Draft struct {
	source  CommissionSource
	logger  zerolog.Logger
	timeout time.Duration

	bases   *RequestStates[string, decimal.Decimal]
	tracker *ResolutionTracker
	wg      sync.WaitGroup

	mu           sync.Mutex
	faceAmount   *decimal.Decimal
	discountMode bool
	delta        decimal.Decimal
	serviceID    string
	registeredAt *time.Time
	deliveryAt   *time.Time
	destination  *domain.Destination
	waitingDays  decimal.Decimal
	waiting      *Ticket
}

// DraftOption configures a Draft.
type DraftOption func(*Draft)

// WithLookupTimeout bounds each remote lookup.
func WithLookupTimeout(d time.Duration) DraftOption {
	return func(dr *Draft) { dr.timeout = d }
}

// NewDraft creates an empty draft.
func NewDraft(source CommissionSource, logger zerolog.Logger, opts ...DraftOption) *Draft {
	d := &Draft{
		source:  source,
		logger:  logger.With().Str("component", "draft").Logger(),
		timeout: 10 * time.Second,
		bases:   NewRequestStates[string, decimal.Decimal](),
		tracker: NewResolutionTracker(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetFaceAmount sets the face amount; nil clears it.
func (d *Draft) SetFaceAmount(amount *decimal.Decimal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if amount == nil {
		d.faceAmount = nil
		return
	}
	v := *amount
	d.faceAmount = &v
}

// SetDiscountMode toggles whether the face amount already contains the
// commission.
func (d *Draft) SetDiscountMode(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discountMode = on
}

// SetDelta sets the manual adjustment percentage.
func (d *Draft) SetDelta(delta decimal.Decimal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delta = delta
}

// SetDestination normalizes and stores a raw destination descriptor.
func (d *Draft) SetDestination(raw any) {
	dest := domain.NormalizeDestination(raw)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destination = dest
}

// SetService selects the service. Its base commission is fetched once per
// service and the waiting-days surcharge is resolved again.
func (d *Draft) SetService(ctx context.Context, serviceID string) {
	d.mu.Lock()
	d.serviceID = serviceID
	d.resolveWaitingDaysLocked(ctx)
	d.mu.Unlock()

	if serviceID == "" {
		return
	}
	if st, ok := d.bases.Get(serviceID); ok && st.Status != StatusFailed {
		return
	}
	if d.bases.Begin(serviceID) {
		d.wg.Add(1)
		go d.loadBase(ctx, serviceID)
	}
}

// SetDates sets the registration and delivery dates and resolves the
// waiting-days surcharge again.
func (d *Draft) SetDates(ctx context.Context, registeredAt, deliveryAt *time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registeredAt = copyTime(registeredAt)
	d.deliveryAt = copyTime(deliveryAt)
	d.resolveWaitingDaysLocked(ctx)
}

// Wait blocks until every background lookup started so far has finished.
func (d *Draft) Wait() {
	d.wg.Wait()
}

// Preview recomputes the settlement from the current inputs.
func (d *Draft) Preview() domain.Quote {
	d.mu.Lock()
	defer d.mu.Unlock()

	base, baseLoading := d.baseLocked()
	return domain.BuildQuote(domain.QuoteInput{
		FaceAmount: d.faceAmount,
		Terms: domain.CommissionTerms{
			Base:        base,
			Delta:       d.delta,
			WaitingDays: d.waitingDays,
		},
		DiscountMode: d.discountMode,
		Pending:      baseLoading || d.waiting != nil,
		Destination:  d.destination,
	})
}

func (d *Draft) baseLocked() (decimal.Decimal, bool) {
	if d.serviceID == "" {
		return decimal.Zero, false
	}
	st, ok := d.bases.Get(d.serviceID)
	if !ok {
		return decimal.Zero, false
	}
	switch st.Status {
	case StatusLoading:
		return decimal.Zero, true
	case StatusReady:
		return st.Value, false
	default:
		return decimal.Zero, false
	}
}

func (d *Draft) loadBase(ctx context.Context, serviceID string) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	base, err := d.source.BaseCommission(ctx, serviceID)
	if err != nil {
		d.logger.Warn().Err(err).Str("service_id", serviceID).Msg("base commission lookup failed")
		d.bases.Fail(serviceID, err)
		return
	}
	d.bases.Resolve(serviceID, base)
}

// resolveWaitingDaysLocked supersedes any in-flight surcharge lookup. Without
// a service or either date the surcharge is zero right away.
func (d *Draft) resolveWaitingDaysLocked(ctx context.Context) {
	serviceID := d.serviceID
	start, end := copyTime(d.registeredAt), copyTime(d.deliveryAt)
	ticket := d.tracker.Begin(waitingDaysSlot, binding(serviceID, start, end))

	if serviceID == "" || start == nil || end == nil {
		d.waitingDays = decimal.Zero
		d.waiting = nil
		return
	}

	d.waiting = &ticket
	d.wg.Add(1)
	go d.loadWaitingDays(ctx, ticket, serviceID, start, end)
}

func (d *Draft) loadWaitingDays(ctx context.Context, ticket Ticket, serviceID string, start, end *time.Time) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	pct, err := d.source.CommissionByDay(ctx, serviceID, start, end)
	if err != nil {
		d.logger.Warn().Err(err).Str("service_id", serviceID).Msg("waiting days lookup failed")
		pct = decimal.Zero
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	applied := d.tracker.Complete(ticket, func() {
		d.waitingDays = pct
		d.waiting = nil
	})
	if !applied {
		d.logger.Debug().Uint64("token", ticket.Token).Str("binding", ticket.Binding).Msg("dropping stale waiting days result")
	}
}

func binding(serviceID string, start, end *time.Time) string {
	return fmt.Sprintf("%s|%s|%s", serviceID, formatDay(start), formatDay(end))
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return domain.CalendarDate(*t).Format(time.DateOnly)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
