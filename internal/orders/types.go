package orders

import "time"

// Order statuses, in lifecycle order.
const (
	StatusNew        = "New"
	StatusCooking    = "Cooking"
	StatusDelivering = "Delivering"
	StatusDelivered  = "Delivered"
)

// ActiveStatuses are the statuses shown in the working admin list;
// delivered orders move to the archive.
var (
	ActiveStatuses   = []string{StatusNew, StatusCooking, StatusDelivering}
	ArchivedStatuses = []string{StatusDelivered}
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusCooking, StatusDelivering, StatusDelivered:
		return true
	}
	return false
}

// Order is the order header: id, owner, total and status without the
// line items. The id and creation timestamp are assigned by the backend
// on insert.
type Order struct {
	ID        string    `json:"id" dynamodbav:"id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Total     float64   `json:"total" dynamodbav:"total"`
	Status    string    `json:"status" dynamodbav:"status"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// OrderItem is one line item. Its order_id must reference an order that
// already exists; checkout enforces this by sequencing, not by a
// distributed transaction.
type OrderItem struct {
	ID        string `json:"id" dynamodbav:"id"`
	OrderID   string `json:"order_id" dynamodbav:"order_id"`
	ProductID string `json:"product_id" dynamodbav:"product_id"`
	Size      string `json:"size" dynamodbav:"size"`
	Quantity  int    `json:"quantity" dynamodbav:"quantity"`
}
