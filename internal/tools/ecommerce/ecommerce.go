// Package ecommerce provides the shopping tools: catalog search, price
// comparison, a persistent cart, purchases and order tracking.
package ecommerce

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"slices"
	"time"

	"voxrouter/internal/store"
	"voxrouter/internal/tools"
)

// Store is the persistence the cart and orders need.
type Store interface {
	AddCartItem(ctx context.Context, item store.CartItem) (store.CartItem, error)
	CartItems(ctx context.Context, platform string) ([]store.CartItem, error)
	PlaceOrder(ctx context.Context, platform string, now time.Time) (store.Order, error)
	Order(ctx context.Context, id string) (store.Order, error)
}

type Shop struct {
	catalog *Catalog
	store   Store
	now     func() time.Time
}

func New(catalog *Catalog, st Store) *Shop {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Shop{catalog: catalog, store: st, now: time.Now}
}

func (s *Shop) Tools() []tools.Tool {
	return []tools.Tool{
		tools.New("product_search", "Search for products across multiple platforms",
			tools.Object(map[string]tools.Property{
				"query":      {Type: "string"},
				"platforms":  {Type: "array", Items: &tools.Property{Type: "string"}},
				"max_price":  {Type: "number"},
				"min_rating": {Type: "number", Minimum: tools.Bound(0), Maximum: tools.Bound(5)},
			}, "query"),
			s.search),
		tools.New("price_compare", "Compare prices for a specific product across platforms",
			tools.Object(map[string]tools.Property{
				"product_name": {Type: "string"},
				"product_id":   {Type: "string"},
			}, "product_name"),
			s.compare),
		tools.New("add_to_cart", "Add product to shopping cart",
			tools.Object(map[string]tools.Property{
				"product":    {Type: "string", Description: "product name as spoken"},
				"product_id": {Type: "string"},
				"platform":   {Type: "string"},
				"quantity":   {Type: "integer", Default: 1, Minimum: tools.Bound(1)},
			}),
			s.addToCart),
		tools.New("view_cart", "View current shopping cart items",
			tools.Object(map[string]tools.Property{
				"platform": {Type: "string"},
			}),
			s.viewCart),
		tools.New("execute_purchase", "Execute purchase of items in cart (requires confirmation)",
			tools.Object(map[string]tools.Property{
				"platform":            {Type: "string"},
				"payment_method":      {Type: "string"},
				"shipping_address_id": {Type: "string"},
				"confirm":             {Type: "boolean", Default: false},
			}, "platform", "confirm"),
			s.purchase),
		tools.New("track_order", "Track status of an order",
			tools.Object(map[string]tools.Property{
				"order_id": {Type: "string"},
				"platform": {Type: "string"},
			}, "order_id"),
			s.track),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func (s *Shop) search(ctx context.Context, params map[string]any) (tools.Result, error) {
	query := tools.ParamString(params, "query")
	platforms := tools.ParamStrings(params, "platforms")
	maxPrice, hasMax := tools.ParamNumber(params, "max_price")
	minRating, _ := tools.ParamNumber(params, "min_rating")

	products := []tools.Result{}
	for _, p := range s.catalog.Search(query) {
		offer, ok := p.Cheapest(platforms...)
		if !ok || (hasMax && offer.Price > maxPrice) || p.Rating < minRating {
			continue
		}
		products = append(products, tools.Result{
			"id":       p.ID,
			"name":     p.Name,
			"price":    offer.Price,
			"platform": offer.Platform,
			"rating":   p.Rating,
		})
	}

	slices.SortStableFunc(products, func(a, b tools.Result) int {
		return cmpFloat(b.Number("rating"), a.Number("rating"))
	})

	log.Debug("Product search", "query", query, "max_price", maxPrice, "found", len(products))
	return tools.Result{"success": true, "query": query, "products": products}, nil
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *Shop) compare(ctx context.Context, params map[string]any) (tools.Result, error) {
	product, ok := s.catalog.ByID(tools.ParamString(params, "product_id"))
	if !ok {
		product, ok = s.catalog.Best(tools.ParamString(params, "product_name"))
	}
	if !ok {
		return tools.Result{
			"success":     false,
			"comparisons": []tools.Result{},
			"message":     "I couldn't find that product to compare.",
		}, nil
	}

	offers := slices.Clone(product.Offers)
	slices.SortStableFunc(offers, func(a, b Offer) int { return cmpFloat(a.Total(), b.Total()) })

	comparisons := make([]tools.Result, 0, len(offers))
	for _, o := range offers {
		comparisons = append(comparisons, tools.Result{
			"platform":    o.Platform,
			"price":       o.Price,
			"shipping":    o.Shipping,
			"total_price": round2(o.Total()),
		})
	}

	return tools.Result{
		"success":     true,
		"product":     tools.Result{"id": product.ID, "name": product.Name},
		"comparisons": comparisons,
		"best_deal":   comparisons[0],
	}, nil
}

func (s *Shop) addToCart(ctx context.Context, params map[string]any) (tools.Result, error) {
	name := tools.ParamString(params, "product")
	product, ok := s.catalog.ByID(tools.ParamString(params, "product_id"))
	if !ok {
		product, ok = s.catalog.Best(name)
	}
	if !ok {
		return tools.Result{"success": false, "message": fmt.Sprintf("I couldn't find %s in the catalog.", orThat(name))}, nil
	}

	var platforms []string
	if p := tools.ParamString(params, "platform"); p != "" {
		platforms = []string{p}
	}
	offer, ok := product.Cheapest(platforms...)
	if !ok {
		return tools.Result{"success": false, "message": fmt.Sprintf("%s is not sold on %s.", product.Name, platforms[0])}, nil
	}

	item, err := s.store.AddCartItem(ctx, store.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Platform:  offer.Platform,
		Price:     offer.Price,
		Quantity:  tools.ParamInt(params, "quantity", 1),
		AddedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	return tools.Result{"success": true, "item": cartItemResult(item)}, nil
}

func orThat(s string) string {
	if s == "" {
		return "that"
	}
	return s
}

func cartItemResult(it store.CartItem) tools.Result {
	return tools.Result{
		"id":         it.ID,
		"product_id": it.ProductID,
		"name":       it.Name,
		"platform":   it.Platform,
		"price":      it.Price,
		"quantity":   it.Quantity,
	}
}

func (s *Shop) viewCart(ctx context.Context, params map[string]any) (tools.Result, error) {
	items, err := s.store.CartItems(ctx, tools.ParamString(params, "platform"))
	if err != nil {
		return nil, err
	}

	out := make([]tools.Result, 0, len(items))
	total := 0.0
	for _, it := range items {
		out = append(out, cartItemResult(it))
		total += it.Price * float64(it.Quantity)
	}
	return tools.Result{"success": true, "items": out, "total": round2(total)}, nil
}

func (s *Shop) purchase(ctx context.Context, params map[string]any) (tools.Result, error) {
	if !tools.ParamBool(params, "confirm") {
		return tools.Result{"success": false, "message": "Purchase requires explicit confirmation"}, nil
	}

	order, err := s.store.PlaceOrder(ctx, tools.ParamString(params, "platform"), s.now())
	if errors.Is(err, store.ErrEmptyCart) {
		return tools.Result{"success": false, "message": "Your cart is empty."}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Info("Order placed", "order", order.ID, "total", order.Total)
	return tools.Result{
		"success":            true,
		"order_id":           order.ID,
		"total":              round2(order.Total),
		"estimated_delivery": order.EstimatedDelivery.Format(time.DateOnly),
		"message":            fmt.Sprintf("Your order of $%s has been placed.", tools.FormatNumber(round2(order.Total))),
	}, nil
}

func (s *Shop) track(ctx context.Context, params map[string]any) (tools.Result, error) {
	id := tools.ParamString(params, "order_id")
	order, err := s.store.Order(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return tools.Result{"success": false, "error": err.Error(), "message": "I couldn't find that order."}, nil
	}
	if err != nil {
		return nil, err
	}

	status := order.StatusAt(s.now())
	return tools.Result{
		"success":            true,
		"order_id":           order.ID,
		"status":             status,
		"estimated_delivery": order.EstimatedDelivery.Format(time.DateOnly),
		"message":            fmt.Sprintf("Your order is %s, expected on %s.", statusWords[status], order.EstimatedDelivery.Format("Monday, January 2")),
	}, nil
}

var statusWords = map[string]string{
	store.OrderPlaced:    "placed",
	store.OrderInTransit: "in transit",
	store.OrderDelivered: "delivered",
}
