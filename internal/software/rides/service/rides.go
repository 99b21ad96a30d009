package service

import (
	"context"

	"rideshare/internal/domain/ride"
	"rideshare/internal/ports"

	"github.com/google/uuid"
)

// CreateRide persists a new ride in the requested state and announces it to
// captains over the broker.
func (service *rideService) CreateRide(ctx context.Context, in ports.CreateRideInput) (ports.RideResult, error) {
	r, err := ride.NewRide(in.UserID, in.Pickup, in.Destination)
	if err != nil {
		return ports.RideResult{}, err
	}
	r.ID = uuid.NewString()

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.rideRepo.CreateRide(txCtx, r)
	})
	if err != nil {
		service.logger.Error(ctx, "ride_create_failed", "Failed to create ride", err,
			map[string]any{"user_id": r.UserID})
		return ports.RideResult{}, err
	}

	ctx = service.logger.WithRideID(ctx, r.ID)
	service.logger.Info(ctx, "ride_created", "Ride created",
		map[string]any{"user_id": r.UserID})

	service.publishRequested(ctx, r)
	return toResult(r), nil
}

// AcceptRide assigns a captain to a requested ride and publishes the update.
func (service *rideService) AcceptRide(ctx context.Context, rideID, captainID string) (ports.RideResult, error) {
	r, err := service.transition(ctx, rideID, func(r *ride.Ride) error {
		return r.Accept(captainID)
	})
	if err != nil {
		return ports.RideResult{}, err
	}

	service.logger.Info(service.logger.WithRideID(ctx, r.ID), "ride_accepted", "Ride accepted",
		map[string]any{"captain_id": captainID})
	return toResult(r), nil
}

// CancelRideByUser cancels a ride on behalf of the owning rider and publishes
// the update.
func (service *rideService) CancelRideByUser(ctx context.Context, rideID, userID string) (ports.RideResult, error) {
	r, err := service.transition(ctx, rideID, func(r *ride.Ride) error {
		return r.CancelByUser(userID)
	})
	if err != nil {
		return ports.RideResult{}, err
	}

	service.logger.Info(service.logger.WithRideID(ctx, r.ID), "ride_cancelled", "Ride cancelled by rider",
		map[string]any{"user_id": userID})
	return toResult(r), nil
}

// CancelRideByCaptain cancels a ride on behalf of a captain and publishes the
// update.
func (service *rideService) CancelRideByCaptain(ctx context.Context, rideID, captainID string) (ports.RideResult, error) {
	r, err := service.transition(ctx, rideID, func(r *ride.Ride) error {
		return r.CancelByCaptain(captainID)
	})
	if err != nil {
		return ports.RideResult{}, err
	}

	service.logger.Info(service.logger.WithRideID(ctx, r.ID), "ride_cancelled", "Ride cancelled by captain",
		map[string]any{"captain_id": captainID})
	return toResult(r), nil
}

// transition loads the ride, applies a domain mutation, and persists the new
// status, all within one transaction. The load and the update share the
// transaction so two racing transitions cannot both win.
func (service *rideService) transition(ctx context.Context, rideID string, mutate func(*ride.Ride) error) (*ride.Ride, error) {
	var r *ride.Ride

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		found, err := service.rideRepo.GetByID(txCtx, rideID)
		if err != nil {
			return err
		}
		if err := mutate(found); err != nil {
			return err
		}
		if err := service.rideRepo.UpdateStatus(txCtx, found); err != nil {
			return err
		}
		r = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.publishUpdate(service.logger.WithRideID(ctx, r.ID), r)
	return r, nil
}
