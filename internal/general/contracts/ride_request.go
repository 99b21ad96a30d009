package contracts

import "time"

// RideRequestedMessage is published by the Ride Service when a rider creates a
// ride. Routing key: "ride.requested" on ExchangeRideTopic. The captain service
// fans it out to connected available captains.
type RideRequestedMessage struct {
	RideID      string    `json:"ride_id"`
	UserID      string    `json:"user_id"`
	Pickup      string    `json:"pickup"`
	Destination string    `json:"destination"`
	RequestedAt time.Time `json:"requested_at"`
	Envelope
}
