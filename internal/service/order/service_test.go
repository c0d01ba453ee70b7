package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cartkit/internal/docstore"
	"cartkit/internal/domain"
	"cartkit/internal/pricing"
	cartrepo "cartkit/internal/repository/cart"
	orderrepo "cartkit/internal/repository/order"
	"github.com/shopspring/decimal"
)

var testTime = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  *docstore.Memory
	carts  cartrepo.Repository
	orders orderrepo.Repository
}

func newFixture() *fixture {
	store := docstore.NewMemory()
	carts := cartrepo.NewDocstore(store)
	orders := orderrepo.NewDocstore(store)
	svc := New(orders, carts, pricing.New(decimal.RequireFromString("0.10"), pricing.FlatFee(decimal.NewFromInt(2500))))
	svc.now = func() time.Time { return testTime }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("order_TEST%04d", seq)
	}
	return &fixture{svc: svc, store: store, carts: carts, orders: orders}
}

func seedCart(t *testing.T, f *fixture, cartID string) *domain.Cart {
	t.Helper()
	c := &domain.Cart{
		CartID: cartID,
		Email:  "buyer@example.com",
		Items: []domain.LineItem{
			{ItemID: "a", ProductID: "pa", Name: "A", Slug: "a", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ItemID: "b", ProductID: "pb", Name: "B", Slug: "b", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
		ShippingMethod:  map[string]any{"name": "standard", "amount": "400"},
		ShippingAddress: map[string]any{"city": "Tallinn"},
		PaymentSession:  map[string]any{"id": "ps_1", "provider": "stripe"},
		CreatedAt:       testTime,
		UpdatedAt:       testTime,
	}
	if err := f.carts.Save(context.Background(), c); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return c
}

func seedOrder(t *testing.T, f *fixture, id, userID string, createdAt time.Time) {
	t.Helper()
	err := f.orders.Create(context.Background(), &domain.Order{
		OrderID:   id,
		UserID:    userID,
		CartID:    "cart",
		Status:    domain.OrderStatusPending,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("seed order %s: %v", id, err)
	}
}

func TestCreateFreezesCheckoutTotals(t *testing.T) {
	f := newFixture()
	seedCart(t, f, "cart1")

	o, err := f.svc.Create(context.Background(), "u1", "cart1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(o.OrderID, "order_") {
		t.Fatalf("unexpected order id %q", o.OrderID)
	}
	if !o.Subtotal.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("subtotal %s", o.Subtotal)
	}
	if !o.TaxTotal.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("tax %s", o.TaxTotal)
	}
	// Checkout uses the flat fee, not the cart's shipping_method amount.
	if !o.DeliveryFee.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("fee %s", o.DeliveryFee)
	}
	if !o.Total.Equal(decimal.RequireFromString("2527.5")) {
		t.Fatalf("total %s", o.Total)
	}

	if o.Status != domain.OrderStatusPending ||
		o.FulfillmentStatus != domain.FulfillmentNotFulfilled ||
		o.PaymentStatus != domain.PaymentStatusAwaiting {
		t.Fatalf("unexpected initial statuses %+v", o)
	}
	if o.UserID != "u1" || o.CartID != "cart1" || o.Email != "buyer@example.com" {
		t.Fatalf("cart fields not carried over: %+v", o)
	}
	if len(o.LineItems) != 2 || o.LineItems[0].ItemID != "a" {
		t.Fatalf("line items not copied: %+v", o.LineItems)
	}
	if len(o.Fulfillments) != 0 {
		t.Fatalf("fulfillments should start empty, got %+v", o.Fulfillments)
	}
	if o.PaymentSession["id"] != "ps_1" {
		t.Fatalf("payment session not carried over: %+v", o.PaymentSession)
	}
}

func TestCreateRefusesCollidingOrderID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedCart(t, f, "cart1")
	seedOrder(t, f, "order_TEST0001", "someone-else", testTime)

	// The injected id generator collides with the seeded order on its first
	// call; the existing order must not be overwritten.
	_, err := f.svc.Create(ctx, "u1", "cart1")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument on id collision, got %v", err)
	}
	got, err := f.orders.Get(ctx, "order_TEST0001")
	if err != nil {
		t.Fatalf("Get after collision: %v", err)
	}
	if got.UserID != "someone-else" {
		t.Fatalf("existing order was overwritten: %+v", got)
	}
}

func TestCreateMissingCart(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), "u1", "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRequiresUserID(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), " ", "cart1")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestOrderSurvivesCartMutationAndDeletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedCart(t, f, "cart1")

	o, err := f.svc.Create(ctx, "u1", "cart1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutate the source cart, then delete it entirely.
	if _, err := f.carts.Mutate(ctx, "cart1", func(c *domain.Cart, exists bool) error {
		c.Items[0].Quantity = 50
		c.Items[0].UnitPrice = decimal.NewFromInt(999)
		return nil
	}); err != nil {
		t.Fatalf("mutate cart: %v", err)
	}
	if err := f.carts.Delete(ctx, "cart1"); err != nil {
		t.Fatalf("delete cart: %v", err)
	}

	got, err := f.svc.Get(ctx, "u1", o.OrderID, false)
	if err != nil {
		t.Fatalf("Get after cart deletion: %v", err)
	}
	if got.LineItems[0].Quantity != 2 || !got.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("order line items must stay frozen, got %+v", got.LineItems[0])
	}
	if !got.Total.Equal(o.Total) {
		t.Fatalf("order total must stay frozen: %s vs %s", got.Total, o.Total)
	}
}

func TestGetAccessControl(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedOrder(t, f, "order_X", "u1", testTime)

	if _, err := f.svc.Get(ctx, "u1", "order_X", false); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := f.svc.Get(ctx, "u2", "order_X", false); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "u2", "order_X", true); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if _, err := f.svc.Get(ctx, "u1", "missing", false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	status := "completed"

	// The role check runs before any store access: force the store down and
	// the non-admin caller still gets a permission error.
	f.store.ForcedErr = domain.ErrStoreUnavailable
	if _, err := f.svc.Update(ctx, "order_X", domain.OrderPatch{Status: &status}, false); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	f.store.ForcedErr = nil

	seedOrder(t, f, "order_X", "u1", testTime)
	o, err := f.svc.Update(ctx, "order_X", domain.OrderPatch{
		Status:          &status,
		AddFulfillments: []map[string]any{{"id": "f1", "provider": "dhl"}},
	}, true)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if o.Status != "completed" {
		t.Fatalf("status not patched: %q", o.Status)
	}
	if len(o.Fulfillments) != 1 || o.Fulfillments[0]["id"] != "f1" {
		t.Fatalf("fulfillment not appended: %+v", o.Fulfillments)
	}
	if o.UserID != "u1" {
		t.Fatalf("untouched fields must survive the patch: %+v", o)
	}

	if _, err := f.svc.Update(ctx, "order_X", domain.OrderPatch{}, true); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty patch: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := f.svc.Update(ctx, "missing", domain.OrderPatch{Status: &status}, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing order: expected ErrNotFound, got %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedOrder(t, f, "order_1", "u1", testTime.Add(1*time.Hour))
	seedOrder(t, f, "order_2", "u2", testTime.Add(2*time.Hour))
	seedOrder(t, f, "order_3", "u1", testTime.Add(3*time.Hour))

	own, err := f.svc.List(ctx, "u1", false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("expected 2 orders for u1, got %d", len(own))
	}
	for _, o := range own {
		if o.UserID != "u1" {
			t.Fatalf("non-admin listing leaked foreign order %+v", o)
		}
	}
	if own[0].OrderID != "order_1" || own[1].OrderID != "order_3" {
		t.Fatalf("expected creation-time ascending order, got %+v", own)
	}

	all, err := f.svc.List(ctx, "u1", true)
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if len(all) != 3 || all[0].OrderID != "order_1" || all[2].OrderID != "order_3" {
		t.Fatalf("unexpected admin listing %+v", all)
	}
}

func TestListBlankRequesterRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedOrder(t, f, "order_1", "u1", testTime)

	// A blank requester without the admin role must not fall through to an
	// unscoped listing of every user's orders.
	for _, requester := range []string{"", "   "} {
		if _, err := f.svc.List(ctx, requester, false); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("List(%q): expected ErrInvalidArgument, got %v", requester, err)
		}
		if _, err := f.svc.ListPage(ctx, requester, false, 1, 10); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("ListPage(%q): expected ErrInvalidArgument, got %v", requester, err)
		}
	}

	// Admins may list with a blank requester id.
	all, err := f.svc.List(ctx, "", true)
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 order, got %d", len(all))
	}
}

func TestListPagePagination(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		seedOrder(t, f, fmt.Sprintf("order_%d", i), "u1", testTime.Add(time.Duration(i)*time.Hour))
	}

	page, err := f.svc.ListPage(ctx, "", true, 2, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.TotalCount != 5 || page.TotalPages != 3 {
		t.Fatalf("unexpected pagination metadata %+v", page)
	}
	if len(page.Orders) != 2 || page.Orders[0].OrderID != "order_3" || page.Orders[1].OrderID != "order_4" {
		t.Fatalf("unexpected page contents %+v", page.Orders)
	}

	last, err := f.svc.ListPage(ctx, "", true, 3, 2)
	if err != nil {
		t.Fatalf("ListPage last: %v", err)
	}
	if len(last.Orders) != 1 || last.Orders[0].OrderID != "order_5" {
		t.Fatalf("unexpected last page %+v", last.Orders)
	}

	for _, bad := range [][2]int{{0, 2}, {1, 0}, {-1, -1}} {
		if _, err := f.svc.ListPage(ctx, "", true, bad[0], bad[1]); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("page=%d limit=%d: expected ErrInvalidArgument, got %v", bad[0], bad[1], err)
		}
	}
}

func TestListPageNonAdminScopedToOwnOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedOrder(t, f, "order_1", "u1", testTime.Add(1*time.Hour))
	seedOrder(t, f, "order_2", "u2", testTime.Add(2*time.Hour))
	seedOrder(t, f, "order_3", "u1", testTime.Add(3*time.Hour))

	page, err := f.svc.ListPage(ctx, "u1", false, 1, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if page.TotalCount != 2 || page.TotalPages != 1 {
		t.Fatalf("unexpected metadata %+v", page)
	}
	for _, o := range page.Orders {
		if o.UserID != "u1" {
			t.Fatalf("non-admin page leaked foreign order %+v", o)
		}
	}
}
