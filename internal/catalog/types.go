package catalog

// Product is backend-owned reference data, read-only to customers.
type Product struct {
	ID    string  `json:"id" dynamodbav:"id"`
	Name  string  `json:"name" dynamodbav:"name"`
	Price float64 `json:"price" dynamodbav:"price"`
	Image string  `json:"image,omitempty" dynamodbav:"image,omitempty"`
}

// ProductInput is the admin create/update payload. Name and a positive
// price are required before any write is attempted.
type ProductInput struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"required,gt=0"`
	Image string  `json:"image,omitempty"`
}
