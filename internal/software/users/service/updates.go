package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rideshare/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AwaitRideUpdate blocks until the ride identified by (userID, rideID) is
// accepted or cancelled, or until the configured wait timeout elapses.
func (service *userService) AwaitRideUpdate(ctx context.Context, userID, rideID string) (*contracts.RideUpdateMessage, error) {
	return service.relay.AwaitUpdate(ctx, userID, rideID, service.waitTimeout)
}

// RunBackgroundConsumers starts the ride-update consumer feeding the relay,
// the relay's cache sweeper, and the blacklist janitor.
func (service *userService) RunBackgroundConsumers(ctx context.Context) {
	go service.relay.Run(ctx, service.cacheTTL/2)
	go service.consumeRideUpdates(ctx)
	go service.purgeExpiredTokens(ctx)
}

// purgeExpiredTokens periodically drops blacklist rows for tokens that have
// expired on their own; the middleware would reject them regardless.
func (service *userService) purgeExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-service.tokenTTL)
			removed, err := service.blacklist.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				service.logger.Error(ctx, "token_blacklist_purge_failed",
					"Failed to purge expired blacklisted tokens", err, nil)
				continue
			}
			if removed > 0 {
				service.logger.Info(ctx, "token_blacklist_purged",
					"Removed expired blacklisted tokens",
					map[string]any{"removed": removed})
			}
		}
	}
}

// consumeRideUpdates pumps broker deliveries into the relay. Malformed
// payloads are logged and dropped; they must never poison the queue or
// surface to a waiting rider.
func (service *userService) consumeRideUpdates(ctx context.Context) {
	err := service.rabbitmq.Consume(
		ctx,
		contracts.QueueRideUpdates,
		"user-service-ride-updates",
		20, // prefetch count
		func(hCtx context.Context, d amqp.Delivery) error {
			var msg contracts.RideUpdateMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				service.logger.Error(hCtx, "ride_update_decode_failed",
					"Failed to decode ride update message", err,
					map[string]any{"size": len(d.Body)})
				return fmt.Errorf("decode: %w", err)
			}

			service.relay.OnUpdate(hCtx, msg)
			return nil
		},
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		service.logger.Error(ctx, "ride_updates_consume_failed",
			"Failed to consume ride update messages", err,
			map[string]any{"queue": contracts.QueueRideUpdates})
	}
}
