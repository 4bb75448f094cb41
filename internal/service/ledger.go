package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lalith-99/nextup/internal/events"
	"github.com/lalith-99/nextup/internal/ident"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
	"go.uber.org/zap"
)

// TimePolicy decides what happens when a booking's date/time can't be
// parsed.
type TimePolicy string

const (
	// TimeReject turns an unparseable date/time into a ValidationError.
	TimeReject TimePolicy = "reject"
	// TimeFallback records the booking at the current server time.
	TimeFallback TimePolicy = "fallback"
)

// ParseTimePolicy maps a config value to a policy; unknown values reject.
func ParseTimePolicy(s string) TimePolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(TimeFallback)) {
		return TimeFallback
	}
	return TimeReject
}

// BookingInput is the union of the customer form and the tablet's walk-in
// payload. ServiceRef and BarberRef may be an ID or a display name.
// Either Date+Time or DateTime carries the slot.
type BookingInput struct {
	ShopID      string
	ClientName  string
	ClientPhone string
	ServiceRef  string
	BarberRef   string
	Date        string
	Time        string
	DateTime    string
	Notes       string
}

// Ledger records bookings and their status changes.
type Ledger struct {
	shops    repository.ShopRepository
	catalog  repository.CatalogRepository
	bookings repository.BookingRepository
	ids      ident.Generator
	events   events.Publisher
	loc      *time.Location
	policy   TimePolicy
	now      func() time.Time
	logger   *zap.Logger
}

func NewLedger(store repository.Store, ids ident.Generator, pub events.Publisher, loc *time.Location, policy TimePolicy, logger *zap.Logger) *Ledger {
	if pub == nil {
		pub = events.Discard{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if policy == "" {
		policy = TimeReject
	}
	return &Ledger{
		shops:    store.Shops(),
		catalog:  store.Catalog(),
		bookings: store.Bookings(),
		ids:      ids,
		events:   pub,
		loc:      loc,
		policy:   policy,
		now:      time.Now,
		logger:   logger,
	}
}

func (l *Ledger) requireShop(ctx context.Context, shopID string) error {
	shop, err := l.shops.GetByID(ctx, shopID)
	if err != nil {
		return fmt.Errorf("get shop %s: %w", shopID, err)
	}
	if shop == nil {
		return ErrNotFound
	}
	return nil
}

// CreateBooking records a customer booking from the public form.
func (l *Ledger) CreateBooking(ctx context.Context, in BookingInput) (*models.Booking, error) {
	return l.create(ctx, in, false)
}

// CreateWalkIn records a client added at the shop from the tablet. The
// slot defaults to now.
func (l *Ledger) CreateWalkIn(ctx context.Context, in BookingInput) (*models.Booking, error) {
	return l.create(ctx, in, true)
}

func (l *Ledger) create(ctx context.Context, in BookingInput, walkIn bool) (*models.Booking, error) {
	if err := l.requireShop(ctx, in.ShopID); err != nil {
		return nil, err
	}

	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientPhone = strings.TrimSpace(in.ClientPhone)
	in.ServiceRef = strings.TrimSpace(in.ServiceRef)
	in.BarberRef = strings.TrimSpace(in.BarberRef)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.DateTime = strings.TrimSpace(in.DateTime)

	var missing []string
	if in.ClientName == "" {
		missing = append(missing, "clientName")
	}
	if in.ClientPhone == "" {
		missing = append(missing, "clientPhone")
	}
	if in.ServiceRef == "" {
		missing = append(missing, "serviceName")
	}
	if !walkIn && in.DateTime == "" {
		if in.Date == "" {
			missing = append(missing, "date")
		}
		if in.Time == "" {
			missing = append(missing, "time")
		}
	}
	if len(missing) > 0 {
		return nil, newValidationError("Please fill in name, phone, service, date, and time.", missing...)
	}

	now := l.now().UTC().Truncate(time.Microsecond)
	scheduled := now
	if in.DateTime != "" || in.Date != "" || in.Time != "" {
		t, err := ParseSlot(in.Date, in.Time, in.DateTime, l.loc)
		switch {
		case err == nil:
			scheduled = t
		case l.policy == TimeFallback:
			l.logger.Warn("unparseable booking time, recording current time",
				zap.String("shop_id", in.ShopID),
				zap.String("date", in.Date),
				zap.String("time", in.Time),
				zap.String("date_time", in.DateTime),
			)
		default:
			return nil, newValidationError("Please pick a valid date and time.", "date", "time")
		}
	}

	b := models.Booking{
		ID:          l.ids.NewID(ident.PrefixBooking),
		ShopID:      in.ShopID,
		ClientName:  in.ClientName,
		ClientPhone: in.ClientPhone,
		ServiceName: in.ServiceRef,
		ScheduledAt: scheduled,
		Status:      models.StatusWaiting,
		IsWalkIn:    walkIn,
		CreatedAt:   now,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		b.Notes = &notes
	}
	if err := l.resolveRefs(ctx, &b, in.ServiceRef, in.BarberRef); err != nil {
		return nil, err
	}

	if err := l.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking for %s: %w", in.ShopID, err)
	}
	l.publish(ctx, events.BookingCreated, b)
	return &b, nil
}

// resolveRefs matches the service and barber references against the
// shop's catalog by ID or case-insensitive name. A match stores both ID
// and canonical name; no match keeps the text as typed.
func (l *Ledger) resolveRefs(ctx context.Context, b *models.Booking, serviceRef, barberRef string) error {
	services, err := l.catalog.ListServices(ctx, b.ShopID, false)
	if err != nil {
		return fmt.Errorf("resolve service for %s: %w", b.ShopID, err)
	}
	for _, svc := range services {
		if svc.ID == serviceRef || strings.EqualFold(svc.Name, serviceRef) {
			id, name := svc.ID, svc.Name
			b.ServiceID = &id
			b.ServiceName = name
			break
		}
	}

	if barberRef == "" {
		return nil
	}
	name := barberRef
	b.BarberName = &name

	barbers, err := l.catalog.ListBarbers(ctx, b.ShopID)
	if err != nil {
		return fmt.Errorf("resolve barber for %s: %w", b.ShopID, err)
	}
	for _, br := range barbers {
		if br.ID == barberRef || strings.EqualFold(br.Name, barberRef) {
			id, canonical := br.ID, br.Name
			b.BarberID = &id
			b.BarberName = &canonical
			break
		}
	}
	return nil
}

// ListBookings returns a shop's bookings by scheduled time, oldest first.
func (l *Ledger) ListBookings(ctx context.Context, shopID string, since *time.Time) ([]models.Booking, error) {
	if err := l.requireShop(ctx, shopID); err != nil {
		return nil, err
	}
	bookings, err := l.bookings.ListByShop(ctx, shopID, since)
	if err != nil {
		return nil, fmt.Errorf("list bookings for %s: %w", shopID, err)
	}
	return bookings, nil
}

// SetStatus moves a booking between waiting, in_chair and done. Any order
// is allowed: the tablet can put a client back in the queue.
func (l *Ledger) SetStatus(ctx context.Context, shopID, bookingID, status string) (*models.Booking, error) {
	st := models.BookingStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, newValidationError("Status must be one of waiting, in_chair, done.", "status")
	}
	if err := l.requireShop(ctx, shopID); err != nil {
		return nil, err
	}

	b, err := l.bookings.UpdateStatus(ctx, shopID, strings.TrimSpace(bookingID), st)
	if err != nil {
		return nil, fmt.Errorf("set status %s/%s: %w", shopID, bookingID, err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	l.publish(ctx, events.BookingStatusChanged, *b)
	return b, nil
}

// publish never fails the caller: the booking is already stored.
func (l *Ledger) publish(ctx context.Context, typ events.Type, b models.Booking) {
	ev := events.Event{Type: typ, ShopID: b.ShopID, Booking: b, At: l.now().UTC()}
	if err := l.events.Publish(ctx, ev); err != nil {
		l.logger.Warn("publish booking event failed",
			zap.String("type", string(typ)),
			zap.String("shop_id", b.ShopID),
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}
}

// Accepted layouts for the booking slot.
const (
	dateLayout      = "2006-01-02"
	localLayout     = "2006-01-02T15:04"
	localLayoutSecs = "2006-01-02T15:04:05"
)

// ParseSlot combines a calendar date and a clock time (HH:MM or HH:MM:SS)
// in loc, or parses dateTime as RFC 3339 (or a zone-less local timestamp in
// loc). The result is in UTC.
func ParseSlot(date, clock, dateTime string, loc *time.Location) (time.Time, error) {
	if dateTime != "" {
		if t, err := time.Parse(time.RFC3339, dateTime); err == nil {
			return t.UTC(), nil
		}
		for _, layout := range []string{localLayoutSecs, localLayout} {
			if t, err := time.ParseInLocation(layout, dateTime, loc); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date-time %q", dateTime)
	}

	if _, err := time.Parse(dateLayout, date); err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", date)
	}
	combined := date + "T" + clock
	for _, layout := range []string{localLayout, localLayoutSecs} {
		if t, err := time.ParseInLocation(layout, combined, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", clock)
}
