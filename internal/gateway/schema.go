package gateway

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Kind identifies a backend table by its logical name.
type Kind string

const (
	Products   Kind = "products"
	Orders     Kind = "orders"
	OrderItems Kind = "order_items"
)

// TableNames maps logical kinds to the physical table names in the backend.
type TableNames struct {
	Products   string
	Orders     string
	OrderItems string
}

func (t TableNames) name(k Kind) string {
	switch k {
	case Products:
		if t.Products != "" {
			return t.Products
		}
	case Orders:
		if t.Orders != "" {
			return t.Orders
		}
	case OrderItems:
		if t.OrderItems != "" {
			return t.OrderItems
		}
	}
	return string(k)
}

// tableSchema describes the shape the gateway enforces at the write
// boundary. Rows missing a required column are rejected before any
// network call is made.
type tableSchema struct {
	Key         string
	AutoID      bool
	Timestamped bool // stamp created_at on insert when absent
	Required    []string
}

var schemas = map[Kind]tableSchema{
	Products:   {Key: "id", AutoID: true, Required: []string{"name", "price"}},
	Orders:     {Key: "id", AutoID: true, Timestamped: true, Required: []string{"user_id", "total", "status"}},
	OrderItems: {Key: "id", AutoID: true, Required: []string{"order_id", "product_id", "size", "quantity"}},
}

// validateRow checks the marshaled row against the table schema.
func validateRow(op string, table string, sch tableSchema, item map[string]types.AttributeValue) *RemoteError {
	for _, col := range sch.Required {
		av, ok := item[col]
		if !ok {
			return remoteErr(op, table, "missing required column "+col)
		}
		switch v := av.(type) {
		case *types.AttributeValueMemberNULL:
			return remoteErr(op, table, "missing required column "+col)
		case *types.AttributeValueMemberS:
			if v.Value == "" {
				return remoteErr(op, table, "missing required column "+col)
			}
		}
	}
	return nil
}
