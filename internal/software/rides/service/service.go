package service

import (
	"context"
	"encoding/json"
	"time"

	"rideshare/internal/domain/ride"
	"rideshare/internal/general/contracts"
	"rideshare/internal/general/logger"
	"rideshare/internal/general/rabbitmq"
	"rideshare/internal/ports"

	"github.com/google/uuid"
)

// rideService owns the ride lifecycle and publishes every state change to the
// broker for the other services to react to.
type rideService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	rideRepo ports.RideRepository
	pub      *rabbitmq.MQPublisher
}

// NewRideService creates a new instance of the RideService with the provided dependencies.
func NewRideService(
	log *logger.Logger,
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	pub *rabbitmq.MQPublisher,
) ports.RideService {
	return &rideService{
		logger:   log,
		uow:      uow,
		rideRepo: rideRepo,
		pub:      pub,
	}
}

// publishRequested announces a freshly created ride to captains. Publish
// failures are logged, not returned: the ride is already persisted and
// captains can still discover it through a later update.
func (service *rideService) publishRequested(ctx context.Context, r *ride.Ride) {
	msg := contracts.RideRequestedMessage{
		RideID:      r.ID,
		UserID:      r.UserID,
		Pickup:      r.Pickup,
		Destination: r.Destination,
		RequestedAt: r.CreatedAt,
		Envelope: contracts.Envelope{
			CorrelationID: uuid.NewString(),
			Producer:      "ride-service",
			SentAt:        time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		service.logger.Error(ctx, "ride_requested_marshal_failed", "Failed to marshal ride request", err,
			map[string]any{"ride_id": r.ID})
		return
	}

	if err := service.pub.Publish(contracts.ExchangeRideTopic, contracts.RouteRideRequested, body); err != nil {
		service.logger.Error(ctx, "ride_requested_publish_failed", "Failed to publish ride request", err,
			map[string]any{"ride_id": r.ID})
		return
	}

	service.logger.Info(ctx, "ride_requested_published", "Ride request published",
		map[string]any{"ride_id": r.ID, "routing_key": contracts.RouteRideRequested})
}

// publishUpdate announces a ride status change. The routing key carries the
// new status so consumers can bind selectively.
func (service *rideService) publishUpdate(ctx context.Context, r *ride.Ride) {
	msg := contracts.RideUpdateMessage{
		RideID:      r.ID,
		UserID:      r.UserID,
		CaptainID:   r.CaptainID,
		Status:      r.Status.String(),
		Pickup:      r.Pickup,
		Destination: r.Destination,
		Timestamp:   r.UpdatedAt,
		Envelope: contracts.Envelope{
			CorrelationID: uuid.NewString(),
			Producer:      "ride-service",
			SentAt:        time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		service.logger.Error(ctx, "ride_update_marshal_failed", "Failed to marshal ride update", err,
			map[string]any{"ride_id": r.ID})
		return
	}

	routingKey := contracts.RouteRideUpdatePrefix + r.Status.String()
	if err := service.pub.Publish(contracts.ExchangeRideTopic, routingKey, body); err != nil {
		service.logger.Error(ctx, "ride_update_publish_failed", "Failed to publish ride update", err,
			map[string]any{"ride_id": r.ID, "routing_key": routingKey})
		return
	}

	service.logger.Info(ctx, "ride_update_published", "Ride update published",
		map[string]any{"ride_id": r.ID, "status": r.Status.String(), "routing_key": routingKey})
}

func toResult(r *ride.Ride) ports.RideResult {
	return ports.RideResult{
		RideID:      r.ID,
		UserID:      r.UserID,
		CaptainID:   r.CaptainID,
		Pickup:      r.Pickup,
		Destination: r.Destination,
		Status:      r.Status.String(),
	}
}
