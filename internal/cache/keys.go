package cache

import "fmt"

// Kind groups cache keys by the entity family they describe. Kind-scoped
// invalidation relies on this being a small closed set.
type Kind string

const (
	KindOrderList     Kind = "orders"
	KindOrderDetail   Kind = "order"
	KindProductList   Kind = "products"
	KindProductDetail Kind = "product"
)

// Key is the semantic identity of one cached query: entity kind plus its
// scope parameters. Keys are comparable values, never ad hoc strings.
type Key struct {
	Kind     Kind
	ID       string
	UserID   string
	Archived bool
}

// OrderList keys the admin order list scoped by the archived flag.
func OrderList(archived bool) Key {
	return Key{Kind: KindOrderList, Archived: archived}
}

// UserOrderList keys one user's order list.
func UserOrderList(userID string) Key {
	return Key{Kind: KindOrderList, UserID: userID}
}

// OrderDetail keys a single order by id.
func OrderDetail(id string) Key {
	return Key{Kind: KindOrderDetail, ID: id}
}

// ProductList keys the unscoped product list.
func ProductList() Key {
	return Key{Kind: KindProductList}
}

// ProductDetail keys a single product by id.
func ProductDetail(id string) Key {
	return Key{Kind: KindProductDetail, ID: id}
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%t", k.Kind, k.ID, k.UserID, k.Archived)
}
