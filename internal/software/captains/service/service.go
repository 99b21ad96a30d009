package service

import (
	"context"
	"errors"

	"rideshare/internal/general/contracts"
	"rideshare/internal/general/jwt"
	"rideshare/internal/general/logger"
	"rideshare/internal/general/rabbitmq"
	"rideshare/internal/ports"
)

var (
	ErrEmailTaken         = errors.New("captain already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RideRequestBroadcaster receives newly requested rides for fan-out to
// connected captains.
type RideRequestBroadcaster interface {
	Broadcast(ctx context.Context, msg contracts.RideRequestedMessage)
}

// captainService encapsulates captain account logic and the ride-request feed.
type captainService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	captainRepo ports.CaptainRepository
	blacklist   ports.TokenBlacklistRepository
	auth        *jwt.Manager
	rabbitmq    *rabbitmq.Client
	feed        RideRequestBroadcaster
}

// NewCaptainService creates a new instance of the CaptainService with the provided dependencies.
func NewCaptainService(
	log *logger.Logger,
	uow ports.UnitOfWork,
	captainRepo ports.CaptainRepository,
	blacklist ports.TokenBlacklistRepository,
	auth *jwt.Manager,
	rmq *rabbitmq.Client,
	feed RideRequestBroadcaster,
) ports.CaptainService {
	return &captainService{
		logger:      log,
		uow:         uow,
		captainRepo: captainRepo,
		blacklist:   blacklist,
		auth:        auth,
		rabbitmq:    rmq,
		feed:        feed,
	}
}
