package model

import "time"

// BookingStatus is the lifecycle state of a service booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// forward transitions; cancellation is handled separately because it is
// reachable from any non-terminal state
var bookingTransitions = map[BookingStatus]BookingStatus{
	BookingPending:    BookingConfirmed,
	BookingConfirmed:  BookingInProgress,
	BookingInProgress: BookingCompleted,
}

// CanTransition reports whether moving from s to next is a legal step:
// pending -> confirmed -> in_progress -> completed, plus cancelled from any
// non-terminal state.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if next == BookingCancelled {
		return !s.IsTerminal()
	}
	return bookingTransitions[s] == next
}

// Booking represents a service appointment made against a listing.
type Booking struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	ListingID   string        `json:"listing_id" db:"listing_id"`
	ServiceType string        `json:"service_type,omitempty" db:"service_type"`
	Details     string        `json:"details,omitempty" db:"details"`
	Status      BookingStatus `json:"status" db:"status"`
	ScheduledAt time.Time     `json:"scheduled_at" db:"scheduled_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}
