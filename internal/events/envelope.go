package events

import (
	"encoding/json"
	"time"
)

const (
	TopicOrders  = "giftshop.orders"
	TopicCatalog = "giftshop.catalog"
	TopicReviews = "giftshop.reviews"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"

	EventProductCreated  = "ProductCreated"
	EventProductUpdated  = "ProductUpdated"
	EventProductDeleted  = "ProductDeleted"
	EventCategoryChanged = "CategoryChanged"

	EventReviewChanged = "ReviewChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPayload struct {
	OrderID     string   `json:"order_id"`
	OrderNumber string   `json:"order_number"`
	UserID      string   `json:"user_id,omitempty"`
	Status      string   `json:"status"`
	Total       string   `json:"total,omitempty"`
	ProductIDs  []string `json:"product_ids,omitempty"`
}

type ProductPayload struct {
	ProductID   string   `json:"product_id"`
	CategoryIDs []string `json:"category_ids"`
}

type CategoryPayload struct {
	CategoryID string `json:"category_id"`
}

type ReviewPayload struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
}
