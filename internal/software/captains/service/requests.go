package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rideshare/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RunBackgroundConsumers starts the ride-request consumer feeding the
// captain WebSocket feed.
func (service *captainService) RunBackgroundConsumers(ctx context.Context) {
	go service.consumeRideRequests(ctx)
}

// consumeRideRequests pumps newly requested rides from the broker into the
// feed. Malformed payloads are logged and dropped.
func (service *captainService) consumeRideRequests(ctx context.Context) {
	err := service.rabbitmq.Consume(
		ctx,
		contracts.QueueRideRequests,
		"captain-service-ride-requests",
		20, // prefetch count
		func(hCtx context.Context, d amqp.Delivery) error {
			var msg contracts.RideRequestedMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				service.logger.Error(hCtx, "ride_request_decode_failed",
					"Failed to decode ride request message", err,
					map[string]any{"size": len(d.Body)})
				return fmt.Errorf("decode: %w", err)
			}

			service.feed.Broadcast(hCtx, msg)
			return nil
		},
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		service.logger.Error(ctx, "ride_requests_consume_failed",
			"Failed to consume ride request messages", err,
			map[string]any{"queue": contracts.QueueRideRequests})
	}
}
