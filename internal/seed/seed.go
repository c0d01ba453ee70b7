// Package seed loads a small demo data set: one cart with two line items and
// an order derived from it. Useful for poking at a fresh database.
package seed

import (
	"context"
	"log"

	"cartkit/internal/config"
	"cartkit/internal/docstore"
	"cartkit/internal/domain"
	"cartkit/internal/idgen"
	"cartkit/internal/pricing"
	cartrepo "cartkit/internal/repository/cart"
	orderrepo "cartkit/internal/repository/order"
	cartsvc "cartkit/internal/service/cart"
	ordersvc "cartkit/internal/service/order"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Apply seeds the demo cart and order through the full service surface, so a
// successful run also smoke-tests the wiring end to end.
func Apply(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger *log.Logger) error {
	store := docstore.NewPostgres(pool)
	carts := cartrepo.NewDocstore(store)
	orders := orderrepo.NewDocstore(store)
	cartService := cartsvc.New(carts, pricing.New(cfg.CartTaxRate, pricing.MethodFee()))
	orderService := ordersvc.New(orders, carts, pricing.New(cfg.OrderTaxRate, pricing.FlatFee(cfg.OrderShippingFee)))

	// Cart ids are caller-assigned; a uuid is the usual caller-side choice.
	cartID := uuid.NewString()
	owner := cartsvc.Owner{CustomerID: "cust_demo", Email: "demo@example.com"}

	items := []domain.LineItem{
		{
			ItemID:    idgen.New("item_"),
			ProductID: "prod_espresso_cup",
			Name:      "Espresso Cup",
			Slug:      "espresso-cup",
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(1200),
		},
		{
			ItemID:    idgen.New("item_"),
			ProductID: "prod_moka_pot",
			Name:      "Moka Pot",
			Slug:      "moka-pot",
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(5400),
		},
	}
	for _, item := range items {
		if _, err := cartService.AddItem(ctx, cartID, item, owner); err != nil {
			return err
		}
	}

	if _, err := cartService.UpdateDetails(ctx, cartID, domain.CartPatch{
		ShippingMethod: map[string]any{"name": "standard", "amount": "500"},
	}); err != nil {
		return err
	}

	priced, err := cartService.Get(ctx, cartID)
	if err != nil {
		return err
	}
	logger.Printf("seeded cart %s: subtotal=%s total=%s", cartID, priced.Subtotal, priced.Total)

	order, err := orderService.Create(ctx, "user_demo", cartID)
	if err != nil {
		return err
	}
	logger.Printf("seeded order %s: total=%s", order.OrderID, order.Total)

	return nil
}
