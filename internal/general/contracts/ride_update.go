package contracts

import "time"

// RideUpdateMessage is published by the Ride Service whenever a ride's status
// changes (accept, cancel). Routing key: "ride.update.{status}" on ExchangeRideTopic.
// The user service relay correlates these to pending status-check requests by
// (user_id, ride_id).
type RideUpdateMessage struct {
	RideID      string    `json:"ride_id"`
	UserID      string    `json:"user_id"`
	CaptainID   string    `json:"captain_id,omitempty"`
	Status      string    `json:"status"` // requested|accepted|cancelled|completed
	Pickup      string    `json:"pickup"`
	Destination string    `json:"destination"`
	Timestamp   time.Time `json:"timestamp"`
	Envelope
}
