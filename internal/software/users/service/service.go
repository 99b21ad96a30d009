package service

import (
	"errors"
	"time"

	"rideshare/internal/general/jwt"
	"rideshare/internal/general/logger"
	"rideshare/internal/general/rabbitmq"
	"rideshare/internal/ports"
	"rideshare/internal/relay"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// userService encapsulates rider account logic and the ride-status relay.
type userService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	userRepo    ports.UserRepository
	blacklist   ports.TokenBlacklistRepository
	auth        *jwt.Manager
	rabbitmq    *rabbitmq.Client
	relay       *relay.Relay
	waitTimeout time.Duration
	cacheTTL    time.Duration
	tokenTTL    time.Duration
}

// NewUserService creates a new instance of the UserService with the provided dependencies.
func NewUserService(
	log *logger.Logger,
	uow ports.UnitOfWork,
	userRepo ports.UserRepository,
	blacklist ports.TokenBlacklistRepository,
	auth *jwt.Manager,
	rmq *rabbitmq.Client,
	rideRelay *relay.Relay,
	waitTimeout time.Duration,
	cacheTTL time.Duration,
	tokenTTL time.Duration,
) ports.UserService {
	return &userService{
		logger:      log,
		uow:         uow,
		userRepo:    userRepo,
		blacklist:   blacklist,
		auth:        auth,
		rabbitmq:    rmq,
		relay:       rideRelay,
		waitTimeout: waitTimeout,
		cacheTTL:    cacheTTL,
		tokenTTL:    tokenTTL,
	}
}
