package domain

import "time"

// EndpointUsage is one accounting row per handled request.
// UserID is nil for unauthenticated traffic.
type EndpointUsage struct {
	UserID     *string
	Method     string
	Endpoint   string
	StatusCode int
	CreatedAt  time.Time
}
