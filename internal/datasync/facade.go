// Package datasync is the only way the dashboard changes its cached data.
// Every change is sent to the server first and applied to the cache only
// once the server has accepted it.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/api"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/cache"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/order"
)

// ErrUnsupported is returned for operations the API does not offer, such
// as editing an order.
var ErrUnsupported = errors.New("operation not supported")

type Facade struct {
	api    *api.Client
	store  *cache.Store
	logger *zap.SugaredLogger
	now    func() time.Time

	mu        sync.RWMutex
	observers []func(Mutation)
}

// New takes a client whose private calls are authenticated.
func New(client *api.Client, store *cache.Store, logger *zap.SugaredLogger) *Facade {
	if store == nil {
		store = cache.NewStore(logger)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Facade{api: client, store: store, logger: logger, now: time.Now}
}

// OnTransition registers fn for every mutation phase change.
func (f *Facade) OnTransition(fn func(Mutation)) {
	f.mu.Lock()
	f.observers = append(f.observers, fn)
	f.mu.Unlock()
}

func (f *Facade) emit(m Mutation) {
	f.mu.RLock()
	fns := slices.Clone(f.observers)
	f.mu.RUnlock()
	for _, fn := range fns {
		fn(m)
	}
}

// commit applies events unless the cache was reset after gen was taken,
// which happens when the user signs out while a request is out.
func (f *Facade) commit(gen uint64, events ...cache.Event) {
	if !f.store.DispatchIf(gen, events...) {
		f.logger.Infow("cache reset during request, result not cached")
	}
}

// Snapshot is the read-only view of the cache.
func (f *Facade) Snapshot() cache.State { return f.store.Snapshot() }

func (f *Facade) Subscribe(fn func(cache.State)) func() { return f.store.Subscribe(fn) }

// LoadAll fetches the three collections in parallel. Once all three
// requests have finished, every collection that loaded is stored, in the
// order products, orders, customers, and loading is switched off. The
// first failure is returned; collections that did load are kept. If the
// cache is reset while the requests are out, nothing is stored.
func (f *Facade) LoadAll(ctx context.Context) error {
	gen := f.store.Generation()
	t := f.begin(KindLoad, "", "")
	var (
		products         []entity.Product
		orders           []entity.Order
		customers        []entity.Customer
		pErr, oErr, cErr error
		g                errgroup.Group
	)
	g.Go(func() error {
		products, pErr = f.api.ListProducts(ctx)
		return pErr
	})
	g.Go(func() error {
		orders, oErr = f.api.ListOrders(ctx)
		return oErr
	})
	g.Go(func() error {
		customers, cErr = f.api.ListCustomers(ctx)
		return cErr
	})
	err := g.Wait()

	var events []cache.Event
	if pErr == nil {
		events = append(events, cache.ProductAction{Action: cache.SetAll(products)})
	}
	if oErr == nil {
		events = append(events, cache.OrderAction{Action: cache.SetAll(orders)})
	}
	if cErr == nil {
		events = append(events, cache.CustomerAction{Action: cache.SetAll(customers)})
	}
	f.commit(gen, append(events, cache.SetLoading(false))...)

	if err != nil {
		f.logger.Warnw("bulk load incomplete",
			"products_err", pErr, "orders_err", oErr, "customers_err", cErr)
		return t.end(fmt.Errorf("load all: %w", err))
	}
	f.logger.Infow("bulk load complete",
		"products", len(products), "orders", len(orders), "customers", len(customers))
	return t.end(nil)
}

// CreateProduct checks that every field is filled in, creates the product
// and caches the server's record.
func (f *Facade) CreateProduct(ctx context.Context, d entity.ProductDraft) (entity.Product, error) {
	if missing := d.MissingFields(); len(missing) > 0 {
		return entity.Product{}, &api.ValidationError{Fields: missing}
	}
	gen := f.store.Generation()
	t := f.begin(KindCreate, Products, "")
	p, err := f.api.CreateProduct(ctx, d)
	if err != nil {
		return entity.Product{}, t.end(fmt.Errorf("create product: %w", err))
	}
	t.m.ID = p.ID
	f.commit(gen, cache.ProductAction{Action: cache.Add(p)})
	return p, t.end(nil)
}

// UpdateEntity sends patch as the new state of the record and, once the
// server accepts it, merges the same row into the cache. The returned row
// is what was sent.
func (f *Facade) UpdateEntity(ctx context.Context, c Collection, id string, patch map[string]any) (map[string]any, error) {
	row := maps.Clone(patch)
	if row == nil {
		row = map[string]any{}
	}
	row["_id"] = id

	var send func(context.Context, string, map[string]any) error
	var apply cache.Event
	switch c {
	case Products:
		send, apply = f.api.UpdateProduct, cache.ProductAction{Action: cache.Update[entity.Product](id, row)}
	case Customers:
		send, apply = f.api.UpdateCustomer, cache.CustomerAction{Action: cache.Update[entity.Customer](id, row)}
	default:
		return nil, fmt.Errorf("update %s: %w", c, ErrUnsupported)
	}

	gen := f.store.Generation()
	t := f.begin(KindUpdate, c, id)
	if err := send(ctx, id, row); err != nil {
		return nil, t.end(fmt.Errorf("update %s %s: %w", c, id, err))
	}
	f.commit(gen, apply)
	return row, t.end(nil)
}

// DeleteEntity deletes the record on the server and then from the cache.
func (f *Facade) DeleteEntity(ctx context.Context, c Collection, id string) error {
	var send func(context.Context, string) error
	var apply cache.Event
	switch c {
	case Products:
		send, apply = f.api.DeleteProduct, cache.ProductAction{Action: cache.Delete[entity.Product](id)}
	case Customers:
		send, apply = f.api.DeleteCustomer, cache.CustomerAction{Action: cache.Delete[entity.Customer](id)}
	case Orders:
		send, apply = f.api.DeleteOrder, cache.OrderAction{Action: cache.Delete[entity.Order](id)}
	default:
		return fmt.Errorf("delete %s: %w", c, ErrUnsupported)
	}

	gen := f.store.Generation()
	t := f.begin(KindDelete, c, id)
	if err := send(ctx, id); err != nil {
		return t.end(fmt.Errorf("delete %s %s: %w", c, id, err))
	}
	f.commit(gen, apply)
	return t.end(nil)
}

// PlaceOrder creates (or reuses) the customer, numbers the order, creates
// it, reloads products for the new stock levels and caches the order.
//
// A failure stops the sequence where it is. Nothing already done on the
// server is undone, so a customer created before a failed order stays.
func (f *Facade) PlaceOrder(ctx context.Context, d entity.OrderDraft) (entity.Order, error) {
	lines, err := f.resolveLines(d)
	if err != nil {
		return entity.Order{}, err
	}
	gen := f.store.Generation()
	t := f.begin(KindPlace, Orders, "")

	cust, err := f.api.CreateCustomer(ctx, d.Customer)
	if err != nil {
		return entity.Order{}, t.end(fmt.Errorf("place order: customer: %w", err))
	}
	if !slices.ContainsFunc(f.store.Snapshot().Customers, func(c entity.Customer) bool { return c.ID == cust.ID }) {
		f.commit(gen, cache.CustomerAction{Action: cache.Add(cust)})
	}

	latest, err := f.api.LatestOrderNumber(ctx)
	if err != nil {
		f.logger.Warnw("latest order number unavailable, using seed", "err", err)
		latest = ""
	}

	o := entity.Order{
		OrderNumber:    order.NextNumber(latest),
		OrderDate:      f.now().UTC().Truncate(time.Millisecond),
		Customer:       entity.RefTo(cust),
		Products:       lines,
		TotalAmount:    order.Total(d.Products).Round(2),
		PaymentMethod:  d.PaymentMethod,
		DeliveryStatus: d.DeliveryStatus,
	}
	created, err := f.api.CreateOrder(ctx, o)
	if err != nil {
		return entity.Order{}, t.end(fmt.Errorf("place order %s: %w", o.OrderNumber, err))
	}
	o.ID = created.ID
	t.m.ID = o.OrderNumber

	products, err := f.api.ListProducts(ctx)
	if err != nil {
		return entity.Order{}, t.end(fmt.Errorf("place order %s: reload products: %w", o.OrderNumber, err))
	}
	f.commit(gen,
		cache.ProductAction{Action: cache.SetAll(products)},
		cache.OrderAction{Action: cache.Add(o)})

	f.logger.Infow("order placed", "order", o.OrderNumber, "total", o.TotalAmount.String(), "lines", len(lines))
	return o, t.end(nil)
}

// resolveLines checks the draft and maps each line's product name to the
// cached product id.
func (f *Facade) resolveLines(d entity.OrderDraft) ([]entity.OrderLine, error) {
	missing := d.Customer.MissingFields()
	if strings.TrimSpace(d.PaymentMethod) == "" {
		missing = append(missing, "paymentMethod")
	}
	if strings.TrimSpace(d.DeliveryStatus) == "" {
		missing = append(missing, "deliveryStatus")
	}
	if len(d.Products) == 0 {
		missing = append(missing, "products")
	}

	products := f.store.Snapshot().Products
	lines := make([]entity.OrderLine, 0, len(d.Products))
	for i, l := range d.Products {
		j := slices.IndexFunc(products, func(p entity.Product) bool { return p.Name == l.Name })
		if j < 0 {
			missing = append(missing, fmt.Sprintf("products[%d].name", i))
			continue
		}
		if l.Quantity < 1 {
			missing = append(missing, fmt.Sprintf("products[%d].quantity", i))
		}
		lines = append(lines, entity.OrderLine{
			Product:    entity.RefTo(products[j]),
			Name:       l.Name,
			Quantity:   l.Quantity,
			Unit:       l.Unit,
			UnitPrice:  l.UnitPrice,
			TotalPrice: order.LineTotal(l.Quantity, l.UnitPrice),
		})
	}
	if len(missing) > 0 {
		return nil, &api.ValidationError{Fields: missing}
	}
	return lines, nil
}

// GetOrder fetches one order by number or id without touching the cache.
func (f *Facade) GetOrder(ctx context.Context, key string) (entity.Order, error) {
	o, err := f.api.GetOrder(ctx, key)
	if err != nil {
		return entity.Order{}, fmt.Errorf("get order %s: %w", key, err)
	}
	return o, nil
}

func (f *Facade) CurrentUser(ctx context.Context) (entity.User, error) {
	u, err := f.api.CurrentUser(ctx)
	if err != nil {
		return entity.User{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}
