package domain

import "time"

// Delivery statuses.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Delivery is an audit record for one outbound SMS dispatch attempt.
// PK: delivery_id (ULID). GSI tenant-created_at-index supports per-tenant
// listing in creation order.
type Delivery struct {
	DeliveryID string    `json:"delivery_id" dynamodbav:"delivery_id"`
	Tenant     string    `json:"tenant" dynamodbav:"tenant"`
	Identifier string    `json:"identifier" dynamodbav:"identifier"`
	Status     string    `json:"status" dynamodbav:"status"` // "sent" | "failed"
	Reason     string    `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}
