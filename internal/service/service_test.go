package service

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"go.uber.org/zap"
)

type testEnv struct {
	cfg           *config.Config
	catalogClient *clients.MockCatalogClient
	kv            *repository.MemoryKVStore
	orderRepo     *repository.MemoryOrderRepository
	notifRepo     *repository.MemoryNotificationRepository
	sender        *clients.MockNotificationClient
	publisher     *events.MockEventPublisher
	userClient    *clients.MockUserClient

	catalog       *CatalogService
	carts         *CartService
	orders        *OrderService
	deliveries    *DeliveryService
	procurement   *ProcurementService
	notifications *NotificationService
	auth          *AuthService
}

var (
	tomatoes = models.Product{ID: "1", Name: "Tomatoes", VendorID: "ven_a", UnitPrice: 50, CGSTPercent: 5, SGSTPercent: 5, DeliveryFee: 20}
	onions   = models.Product{ID: "2", Name: "Onions", VendorID: "ven_b", UnitPrice: 80, CGSTPercent: 2.5, SGSTPercent: 2.5}

	customer = &models.Session{UserID: "cus_1", Role: models.RoleCustomer}
	vendorA  = &models.Session{UserID: "ven_a", Role: models.RoleVendor}
	vendorB  = &models.Session{UserID: "ven_b", Role: models.RoleVendor}
	driver   = &models.Session{UserID: "drv_1", Role: models.RoleDriver}
)

func validAddress() models.Address {
	return models.Address{
		Name:       "Asha",
		Line1:      "12 MG Road",
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
		Phone:      "+91 98765 43210",
	}
}

func newTestEnv(t *testing.T, products ...models.Product) *testEnv {
	t.Helper()
	logging.SetRoot(zap.NewNop())

	cfg := config.Load()
	env := &testEnv{
		cfg:           cfg,
		catalogClient: clients.NewMockCatalogClient(products...),
		kv:            repository.NewMemoryKVStore(),
		orderRepo:     repository.NewMemoryOrderRepository(),
		notifRepo:     repository.NewMemoryNotificationRepository(),
		sender:        clients.NewMockNotificationClient(),
		publisher:     events.NewMockEventPublisher(),
		userClient:    clients.NewMockUserClient(),
	}

	cache := repository.NewKVCatalogCache(env.kv, time.Minute, logging.NewLoggerV2("test"))
	cartStore := repository.NewKVCartStore(env.kv, time.Hour)

	env.catalog = NewCatalogService(env.catalogClient, cache, cfg)
	env.notifications = NewNotificationService(env.notifRepo, env.sender, cfg)
	env.carts = NewCartService(cartStore, env.catalog, cfg)
	env.orders = NewOrderService(env.orderRepo, cartStore, env.catalog, env.notifications, env.publisher, cfg)
	env.deliveries = NewDeliveryService(env.orders)
	env.procurement = NewProcurementService(repository.NewMemoryProcurementRepository(), env.catalog, env.notifications)
	env.auth = NewAuthService(env.userClient, repository.NewKVSessionStore(env.kv), cfg)

	t.Cleanup(env.notifications.Wait)
	return env
}

func qty(q float64) *float64 { return &q }

func (e *testEnv) placeOrder(t *testing.T, items ...*models.AddCartItemRequest) *models.Order {
	t.Helper()
	ctx := context.Background()
	for _, it := range items {
		_, err := e.carts.AddItem(ctx, customer.UserID, it)
		require.NoError(t, err)
	}
	order, err := e.orders.Checkout(ctx, customer.UserID, &models.CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)
	return order
}

func TestCatalogService_CachesList(t *testing.T) {
	env := newTestEnv(t, tomatoes, onions)
	ctx := context.Background()

	_, err := env.catalog.ListProducts(ctx)
	require.NoError(t, err)
	products, err := env.catalog.ListProducts(ctx)
	require.NoError(t, err)

	assert.Len(t, products, 2)
	assert.Equal(t, 1, env.catalogClient.Calls)

	require.NoError(t, env.catalog.Refresh(ctx))
	_, _ = env.catalog.ListProducts(ctx)
	assert.Equal(t, 2, env.catalogClient.Calls)
}

func TestCatalogService_ProductsForVendor(t *testing.T) {
	env := newTestEnv(t, tomatoes, onions)

	products, err := env.catalog.ProductsForVendor(context.Background(), "ven_b")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Onions", products[0].Name)
}

func TestCatalogService_GetProductUnknown(t *testing.T) {
	env := newTestEnv(t, tomatoes)

	_, err := env.catalog.GetProduct(context.Background(), "42")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCartService_AddMergesSameProduct(t *testing.T) {
	env := newTestEnv(t, tomatoes, onions)
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "1", Quantity: qty(1.5)})
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "2"})
	require.NoError(t, err)
	cart, err := env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "1", Quantity: qty(0.5)})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2.0, cart.Items[0].Quantity)
	assert.Equal(t, 1.0, cart.Items[1].Quantity)
	assert.Equal(t, "Tomatoes", cart.Items[0].Name)
}

func TestCartService_AddRejects(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "1", Quantity: qty(-1)})
	assert.True(t, errors.IsValidation(err))

	_, err = env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "1", Quantity: qty(math.NaN())})
	assert.True(t, errors.IsValidation(err))

	_, err = env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "nope"})
	assert.True(t, errors.IsValidation(err))
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	env := newTestEnv(t, tomatoes, onions)
	ctx := context.Background()

	_, _ = env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "1"})
	_, _ = env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "2"})

	cart, err := env.carts.UpdateItem(ctx, "u1", "1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cart.Items[0].Quantity)

	cart, err = env.carts.UpdateItem(ctx, "u1", "1", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "2", cart.Items[0].ProductID)

	_, err = env.carts.RemoveItem(ctx, "u1", "1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, env.carts.Clear(ctx, "u1"))
	cart, err = env.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_PriceCart(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "1", Quantity: qty(2)})
	require.NoError(t, err)

	priced, err := env.carts.PriceCart(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, priced.CatalogUnavailable)
	assert.Equal(t, 100.0, priced.Breakdown.Subtotal)
	assert.Equal(t, 130.0, priced.Breakdown.Total)
	assert.Equal(t, "₹130.00", priced.Formatted.Total)
}

func TestCartService_PriceCartWithoutCatalog(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, "u1", &models.AddCartItemRequest{ProductID: "1", Quantity: qty(2)})
	require.NoError(t, err)

	require.NoError(t, env.catalog.Refresh(ctx))
	env.catalogClient.Err = errors.NewUpstreamStatusError("catalog", 503)

	priced, err := env.carts.PriceCart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, priced.CatalogUnavailable)
	assert.Equal(t, 100.0, priced.Breakdown.Subtotal)
	assert.Zero(t, priced.Breakdown.CGST)
	assert.Zero(t, priced.Breakdown.DeliveryFee)
	assert.Equal(t, 100.0, priced.Breakdown.Total)
}

func TestOrderService_Checkout(t *testing.T) {
	env := newTestEnv(t, tomatoes, onions)

	order := env.placeOrder(t,
		&models.AddCartItemRequest{ProductID: "1", Quantity: qty(2)},
		&models.AddCartItemRequest{ProductID: "2"},
	)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 180.0, order.Breakdown.Subtotal, 1e-9)
	assert.InDelta(t, 7.0, order.Breakdown.CGST, 1e-9)
	assert.InDelta(t, 7.0, order.Breakdown.SGST, 1e-9)
	assert.InDelta(t, 20.0, order.Breakdown.DeliveryFee, 1e-9)
	assert.InDelta(t, 214.0, order.Breakdown.Total, 1e-9)
	assert.Len(t, order.Rates, 2)
	assert.Equal(t, []string{"ven_a", "ven_b"}, order.Vendors())

	cart, err := env.carts.GetCart(context.Background(), customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "cart should be cleared after checkout")

	assert.Equal(t, []events.EventType{events.EventTypeOrderCreated}, env.publisher.Types())

	count, _ := env.notifRepo.UnreadCount(context.Background(), customer.UserID)
	assert.Equal(t, 1, count)
	count, _ = env.notifRepo.UnreadCount(context.Background(), "ven_b")
	assert.Equal(t, 1, count)
}

func TestOrderService_CheckoutSnapshotsCatalogPrice(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, customer.UserID, &models.AddCartItemRequest{ProductID: "1"})
	require.NoError(t, err)

	repriced := tomatoes
	repriced.UnitPrice = 60
	env.catalogClient.Products = []models.Product{repriced}
	require.NoError(t, env.catalog.Refresh(ctx))

	order, err := env.orders.Checkout(ctx, customer.UserID, &models.CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)
	assert.Equal(t, 60.0, order.Items[0].UnitPrice)

	// Later catalog changes do not touch the stored order.
	repriced.UnitPrice = 99
	env.catalogClient.Products = []models.Product{repriced}
	require.NoError(t, env.catalog.Refresh(ctx))

	stored, err := env.orders.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Breakdown, stored.Breakdown)
}

func TestOrderService_CheckoutRejects(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	ctx := context.Background()

	_, err := env.orders.Checkout(ctx, customer.UserID, &models.CheckoutRequest{ShippingAddress: validAddress()})
	assert.True(t, errors.IsValidation(err), "empty cart")

	_, err = env.carts.AddItem(ctx, customer.UserID, &models.AddCartItemRequest{ProductID: "1"})
	require.NoError(t, err)

	bad := validAddress()
	bad.PostalCode = "41100"
	_, err = env.orders.Checkout(ctx, customer.UserID, &models.CheckoutRequest{ShippingAddress: bad})
	assert.True(t, errors.IsValidation(err), "bad postal code")

	env.catalogClient.Products = nil
	require.NoError(t, env.catalog.Refresh(ctx))
	_, err = env.orders.Checkout(ctx, customer.UserID, &models.CheckoutRequest{ShippingAddress: validAddress()})
	assert.True(t, errors.IsValidation(err), "product gone from catalog")

	require.NoError(t, env.catalog.Refresh(ctx))
	env.catalogClient.Err = errors.NewUpstreamStatusError("catalog", 500)
	_, err = env.orders.Checkout(ctx, customer.UserID, &models.CheckoutRequest{ShippingAddress: validAddress()})
	assert.True(t, errors.IsUpstream(err))

	cart, _ := env.carts.GetCart(ctx, customer.UserID)
	assert.Len(t, cart.Items, 1, "failed checkout keeps the cart")
}

func TestOrderService_Visibility(t *testing.T) {
	env := newTestEnv(t, tomatoes, onions)
	order := env.placeOrder(t, &models.AddCartItemRequest{ProductID: "1"})
	ctx := context.Background()

	_, err := env.orders.GetOrder(ctx, customer, order.ID)
	assert.NoError(t, err)
	_, err = env.orders.GetOrder(ctx, vendorA, order.ID)
	assert.NoError(t, err)
	_, err = env.orders.GetOrder(ctx, vendorB, order.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	_, err = env.orders.GetOrder(ctx, driver, order.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	_, err = env.orders.GetOrder(ctx, customer, "ord_missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestOrderService_ListOrdersPagination(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	for i := 0; i < 3; i++ {
		env.placeOrder(t, &models.AddCartItemRequest{ProductID: "1", Quantity: qty(2)})
	}
	ctx := context.Background()

	cards, total, err := env.orders.ListOrders(ctx, customer, &models.OrderListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, cards, 2)
	assert.Equal(t, "Order placed", cards[0].StatusLabel)
	assert.Equal(t, 1, cards[0].ItemCount)
	assert.Equal(t, "₹130.00", cards[0].FormattedTotal)

	cards, _, err = env.orders.ListOrders(ctx, customer, &models.OrderListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	cards, total, err = env.orders.ListOrders(ctx, vendorA, &models.OrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, cards, 3)

	_, total, _ = env.orders.ListOrders(ctx, vendorB, &models.OrderListFilter{})
	assert.Zero(t, total)

	_, _, err = env.orders.ListOrders(ctx, customer, &models.OrderListFilter{Offset: -1})
	assert.True(t, errors.IsValidation(err))
}

func TestNormalizePage(t *testing.T) {
	limit, offset, err := normalizePage(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, _, _ = normalizePage(500, 0)
	assert.Equal(t, 100, limit)

	_, _, err = normalizePage(-1, 0)
	assert.Error(t, err)
}

func TestOrderService_FulfilmentFlow(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	order := env.placeOrder(t, &models.AddCartItemRequest{ProductID: "1"})
	ctx := context.Background()

	_, err := env.orders.UpdateOrderStatus(ctx, vendorA, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	assert.True(t, errors.IsValidation(err), "pending cannot jump to shipped")

	_, err = env.orders.UpdateOrderStatus(ctx, customer, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusConfirmed})
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = env.orders.UpdateOrderStatus(ctx, vendorB, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusConfirmed})
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	for _, status := range []models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusProcessing} {
		updated, err := env.orders.UpdateOrderStatus(ctx, vendorA, order.ID, &models.UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	_, err = env.orders.AssignDriver(ctx, vendorA, order.ID, "  ")
	assert.True(t, errors.IsValidation(err))

	shipped, err := env.orders.AssignDriver(ctx, vendorA, order.ID, driver.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)
	assert.Equal(t, driver.UserID, shipped.DriverID)

	_, err = env.orders.CancelOrder(ctx, customer, order.ID, "changed my mind")
	assert.True(t, errors.IsValidation(err), "shipped orders cannot be cancelled")

	other := &models.Session{UserID: "drv_2", Role: models.RoleDriver}
	_, err = env.orders.UpdateOrderStatus(ctx, other, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	delivered, err := env.orders.UpdateOrderStatus(ctx, driver, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	assert.Equal(t, []events.EventType{
		events.EventTypeOrderCreated,
		events.EventTypeOrderStatusChanged,
		events.EventTypeOrderStatusChanged,
		events.EventTypeOrderStatusChanged,
		events.EventTypeOrderStatusChanged,
	}, env.publisher.Types())

	count, _ := env.notifRepo.UnreadCount(ctx, driver.UserID)
	assert.Equal(t, 1, count, "driver is told about the assignment")
}

func TestOrderService_CancelOrder(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	ctx := context.Background()

	_, err := env.carts.AddItem(ctx, customer.UserID, &models.AddCartItemRequest{ProductID: "1"})
	require.NoError(t, err)
	order, err := env.orders.Checkout(ctx, customer.UserID, &models.CheckoutRequest{
		ShippingAddress: validAddress(),
		Notes:           "ring the bell",
	})
	require.NoError(t, err)

	stranger := &models.Session{UserID: "cus_2", Role: models.RoleCustomer}
	_, err = env.orders.CancelOrder(ctx, stranger, order.ID, "")
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = env.orders.CancelOrder(ctx, customer, order.ID, strings.Repeat("x", 501))
	assert.True(t, errors.IsValidation(err))

	cancelled, err := env.orders.CancelOrder(ctx, customer, order.ID, "ordered twice")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "ring the bell", cancelled.Notes, "delivery notes survive cancellation")
	assert.Contains(t, env.publisher.Types(), events.EventTypeOrderCancelled)

	panel, _, err := env.notifRepo.List(ctx, &models.NotificationFilter{UserID: customer.UserID, Limit: 10})
	require.NoError(t, err)
	var reason string
	for _, n := range panel {
		if n.Metadata["status"] == string(models.OrderStatusCancelled) {
			reason = n.Metadata["note"]
		}
	}
	assert.Equal(t, "ordered twice", reason)

	_, err = env.orders.CancelOrder(ctx, customer, order.ID, "")
	assert.True(t, errors.IsValidation(err))
}

func TestOrderService_TransitionFromStaleSnapshot(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	order := env.placeOrder(t, &models.AddCartItemRequest{ProductID: "1"})
	ctx := context.Background()

	stale, err := env.orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)

	_, err = env.orders.UpdateOrderStatus(ctx, vendorA, order.ID, &models.UpdateOrderStatusRequest{Status: models.OrderStatusConfirmed})
	require.NoError(t, err)

	_, err = env.orders.transition(ctx, stale, models.OrderStatusCancelled, "")
	assert.True(t, errors.Is(err, repository.ErrStatusConflict))
	assert.True(t, errors.IsValidation(err))

	current, err := env.orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, current.Status)
}

func TestOrderService_UpdateStatusNotesStayOffOrder(t *testing.T) {
	env := newTestEnv(t, tomatoes)
	order := env.placeOrder(t, &models.AddCartItemRequest{ProductID: "1"})
	ctx := context.Background()

	updated, err := env.orders.UpdateOrderStatus(ctx, vendorA, order.ID, &models.UpdateOrderStatusRequest{
		Status: models.OrderStatusConfirmed,
		Notes:  "packing <today>",
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Notes)

	panel, _, err := env.notifRepo.List(ctx, &models.NotificationFilter{UserID: customer.UserID, Limit: 10})
	require.NoError(t, err)
	var note string
	for _, n := range panel {
		if n.Metadata["status"] == string(models.OrderStatusConfirmed) {
			note = n.Metadata["note"]
		}
	}
	assert.Equal(t, "packing &lt;today&gt;", note)
}

func TestOrderService_Invoice(t *testing.T) {
	env := newTestEnv(t, tomatoes, onions)
	order := env.placeOrder(t,
		&models.AddCartItemRequest{ProductID: "1", Quantity: qty(2)},
		&models.AddCartItemRequest{ProductID: "2", Quantity: qty(0.5)},
	)

	invoice, err := env.orders.Invoice(context.Background(), customer, order.ID)
	require.NoError(t, err)

	assert.Equal(t, InvoiceNumber(order), invoice.InvoiceNumber)
	assert.True(t, strings.HasPrefix(invoice.InvoiceNumber, "INV-"+order.CreatedAt.UTC().Format("20060102")+"-"))
	assert.Equal(t, "INR", invoice.Currency)
	require.Len(t, invoice.Lines, 2)
	assert.Equal(t, "2 kg", invoice.Lines[0].Quantity)
	assert.Equal(t, "₹100.00", invoice.Lines[0].Amount)
	assert.Equal(t, "₹20.00", invoice.Lines[0].DeliveryFee)
	assert.Equal(t, 2.5, invoice.Lines[1].CGSTPercent)
	assert.Equal(t, "₹1.00", invoice.Lines[1].CGST)
	assert.Equal(t, "₹172.00", invoice.Formatted.Total)
}

func TestInvoiceNumber(t *testing.T) {
	order := &models.Order{
		ID:        "ord_01hq3v9k2x7m4n8p6r5s0t1abc",
		CreatedAt: time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "INV-20240309-5S0T1ABC", InvoiceNumber(order))

	short := &models.Order{ID: "42", CreatedAt: order.CreatedAt}
	assert.Equal(t, "INV-20240309-42", InvoiceNumber(short))
}
