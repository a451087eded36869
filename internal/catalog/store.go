package catalog

import (
	"context"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/quickbites/orderflow/internal/cache"
	"github.com/quickbites/orderflow/internal/gateway"
	"github.com/quickbites/orderflow/internal/validation"
)

// remote is the slice of the data gateway the catalog uses.
type remote interface {
	Fetch(ctx context.Context, kind gateway.Kind, q gateway.Query, out interface{}) error
	Insert(ctx context.Context, kind gateway.Kind, payload, out interface{}) error
	Update(ctx context.Context, kind gateway.Kind, match gateway.Match, fields map[string]interface{}, out interface{}) error
	Delete(ctx context.Context, kind gateway.Kind, match gateway.Match) error
}

// Store reads and administers the product catalog. Reads go through the
// query cache; admin writes invalidate the affected keys.
type Store struct {
	gw       remote
	cache    *cache.Cache
	validate *validatorv10.Validate
}

// NewStore creates a catalog Store.
func NewStore(gw remote, c *cache.Cache) *Store {
	return &Store{gw: gw, cache: c, validate: validation.New()}
}

// List returns all products, name-ordered.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	v, err := s.cache.Get(ctx, cache.ProductList(), func(ctx context.Context) (interface{}, error) {
		var products []Product
		q := gateway.Query{Order: &gateway.Ordering{Column: "name"}}
		if err := s.gw.Fetch(ctx, gateway.Products, q, &products); err != nil {
			return nil, err
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

// Get returns one product by id, or (nil, nil) when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Product, error) {
	v, err := s.cache.Get(ctx, cache.ProductDetail(id), func(ctx context.Context) (interface{}, error) {
		var products []Product
		q := gateway.Query{Filters: []gateway.Filter{gateway.Eq("id", id)}}
		if err := s.gw.Fetch(ctx, gateway.Products, q, &products); err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return (*Product)(nil), nil
		}
		return &products[0], nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

// Create inserts a product after local validation.
func (s *Store) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if verr := validation.Check(s.validate, in); verr != nil {
		return nil, verr
	}
	var created Product
	payload := Product{Name: in.Name, Price: in.Price, Image: in.Image}
	if err := s.gw.Insert(ctx, gateway.Products, payload, &created); err != nil {
		return nil, err
	}
	s.cache.InvalidateKind(cache.KindProductList)
	return &created, nil
}

// Update rewrites a product's fields after local validation.
func (s *Store) Update(ctx context.Context, id string, in ProductInput) (*Product, error) {
	if verr := validation.Check(s.validate, in); verr != nil {
		return nil, verr
	}
	fields := map[string]interface{}{
		"name":  in.Name,
		"price": in.Price,
	}
	if in.Image != "" {
		fields["image"] = in.Image
	}
	var updated Product
	if err := s.gw.Update(ctx, gateway.Products, gateway.Match{Column: "id", Value: id}, fields, &updated); err != nil {
		return nil, err
	}
	s.cache.InvalidateKind(cache.KindProductList)
	s.cache.Invalidate(cache.ProductDetail(id))
	return &updated, nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.gw.Delete(ctx, gateway.Products, gateway.Match{Column: "id", Value: id}); err != nil {
		return err
	}
	s.cache.InvalidateKind(cache.KindProductList)
	s.cache.Invalidate(cache.ProductDetail(id))
	return nil
}
