package orders

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
)

var statuses = map[Status]bool{
	StatusPending: true, StatusConfirmed: true, StatusProcessing: true, StatusShipped: true,
	StatusOutForDelivery: true, StatusDelivered: true, StatusCancelled: true, StatusReturned: true,
}

func ValidStatus(s string) bool { return statuses[Status(s)] }

// CanCancel is the only transition guard: cancellation is allowed before processing starts.
func CanCancel(from Status) bool {
	return from == StatusPending || from == StatusConfirmed
}

// CanTransition reports whether an admin may move an order from one status to another.
// Moves are unconstrained apart from the cancellation rule and same-status no-ops.
func CanTransition(from, to Status) bool {
	if from == to || !statuses[to] {
		return false
	}
	if to == StatusCancelled {
		return CanCancel(from)
	}
	return true
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)
