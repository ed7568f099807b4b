package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carappx/internal/model"
)

// cancellation is refused once the appointment is closer than this
const cancelCutoff = 2 * time.Hour

// ErrBookingNotFound is returned when no booking exists for an ID.
var ErrBookingNotFound = errors.New("booking not found")

// BookingStore is the persistence surface the booking service needs.
// BookingByID returns (nil, nil) when no booking exists; the service maps
// that to ErrBookingNotFound.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	BookingByID(ctx context.Context, id string) (*model.Booking, error)
	BookingsByUser(ctx context.Context, userID string) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error
}

// BookingService contains the booking business rules: status transition
// legality and the cancellation window.
type BookingService struct {
	store BookingStore
	log   *zap.Logger
	now   func() time.Time
}

// NewBookingService creates a booking service.
func NewBookingService(store BookingStore, log *zap.Logger) *BookingService {
	return &BookingService{store: store, log: log, now: time.Now}
}

// CanCancel reports whether the booking may be cancelled at instant now: the
// status must not be completed, cancelled or in_progress, and the scheduled
// time must be more than 2 hours away. Checked before any network call.
func CanCancel(b *model.Booking, now time.Time) bool {
	switch b.Status {
	case model.BookingCompleted, model.BookingCancelled, model.BookingInProgress:
		return false
	}
	return b.ScheduledAt.Sub(now) > cancelCutoff
}

// Create stores a new pending booking.
func (s *BookingService) Create(ctx context.Context, userID, listingID, serviceType, details string, scheduledAt time.Time) (*model.Booking, error) {
	b := &model.Booking{
		ID:          uuid.NewString(),
		UserID:      userID,
		ListingID:   listingID,
		ServiceType: serviceType,
		Details:     details,
		Status:      model.BookingPending,
		ScheduledAt: scheduledAt,
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return b, nil
}

// Get returns a booking by ID.
func (s *BookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	return s.booking(ctx, id)
}

func (s *BookingService) booking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.store.BookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("booking %s: %w", id, ErrBookingNotFound)
	}
	return b, nil
}

// ListByUser returns the user's bookings.
func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return s.store.BookingsByUser(ctx, userID)
}

// Transition moves a booking along the status lifecycle, rejecting illegal
// steps before touching the store.
func (s *BookingService) Transition(ctx context.Context, id string, next model.BookingStatus) (*model.Booking, error) {
	b, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransition(next) {
		return nil, fmt.Errorf("cannot transition booking from %s to %s", b.Status, next)
	}
	if err := s.store.UpdateBookingStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	b.Status = next
	return b, nil
}

// Cancel cancels a booking if the cancellation rule allows it.
func (s *BookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanCancel(b, s.now()) {
		return nil, fmt.Errorf("booking %s is not cancellable: status %s, scheduled %s", id, b.Status, b.ScheduledAt.Format(time.RFC3339))
	}
	if err := s.store.UpdateBookingStatus(ctx, id, model.BookingCancelled); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	s.log.Info("booking cancelled", zap.String("booking_id", id))
	b.Status = model.BookingCancelled
	return b, nil
}
