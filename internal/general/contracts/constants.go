package contracts

// Exchanges
const (
	ExchangeRideTopic = "ride_topic"
)

// Queues
const (
	QueueRideRequests = "ride_requests" // consumed by captain service (new ride feed)
	QueueRideUpdates  = "ride_updates"  // consumed by user service (status relay)
)

// Routing patterns
const (
	RouteRideRequested    = "ride.requested"
	RouteRideUpdatePrefix = "ride.update." // {status}
)
