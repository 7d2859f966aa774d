package providers

import (
	"context"

	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Broadcast publishes one event on several channels at once
	Broadcast(ctx context.Context, event *entities.BookingEvent, channels ...string) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelBookingUpdates is the channel for all booking changes
	EventChannelBookingUpdates = "bookings:updates"

	// EventChannelDoctorPrefix is the prefix for doctor-specific channels
	EventChannelDoctorPrefix = "doctor:"
)

// GetDoctorChannel returns the channel name for a specific doctor
func GetDoctorChannel(doctorID string) string {
	return EventChannelDoctorPrefix + doctorID
}

// BookingChannels returns the channels a doctor's booking event is published on
func BookingChannels(doctorID string) []string {
	return []string{GetDoctorChannel(doctorID), EventChannelBookingUpdates}
}
