package testserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/order"
)

func indexByID[T entity.Identifiable](items []T, id string) int {
	return slices.IndexFunc(items, func(v T) bool { return v.EntityID() == id })
}

// decodePatch reads a PUT body as a field map. An _id that disagrees with
// the path is rejected.
func decodePatch(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return nil, false
	}
	if id, ok := patch["_id"].(string); ok && id != chi.URLParam(r, "id") {
		writeError(w, http.StatusBadRequest, "id mismatch")
		return nil, false
	}
	delete(patch, "_id")
	return patch, true
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Products())
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var d entity.ProductDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if missing := d.MissingFields(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Invalid data", missing...)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.products, func(p entity.Product) bool { return strings.EqualFold(p.Name, d.Name) }) {
		writeError(w, http.StatusConflict, "Product already exists")
		return
	}
	p := entity.Product{ID: newID(), Name: d.Name, Category: d.Category, Unit: d.Unit, UnitPrice: d.UnitPrice, Stock: d.Stock}
	s.products = append(s.products, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.products, chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	p, err := entity.Patch(s.products[i], patch)
	if err != nil || p.Stock < 0 || p.UnitPrice.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	s.products[i] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.products, chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	s.products = slices.Delete(s.products, i, i+1)
	writeJSON(w, http.StatusOK, map[string]string{"status": "Product deleted"})
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Customers())
}

// createCustomer returns the existing customer when the e-mail is already
// known, and creates one otherwise.
func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c entity.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if missing := c.MissingFields(); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Invalid data", missing...)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.IndexFunc(s.customers, func(e entity.Customer) bool { return strings.EqualFold(e.Email, c.Email) }); i >= 0 {
		writeJSON(w, http.StatusOK, s.customers[i])
		return
	}
	c.ID = newID()
	s.customers = append(s.customers, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.customers, chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Customer not found")
		return
	}
	c, err := entity.Patch(s.customers[i], patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	s.customers[i] = c
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.customers, chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Customer not found")
		return
	}
	s.customers = slices.Delete(s.customers, i, i+1)
	writeJSON(w, http.StatusOK, map[string]string{"status": "Customer deleted"})
}

// orderView is an order with its customer populated, as the list and
// detail endpoints return it.
type orderView struct {
	entity.Order
	Customer any `json:"customer"`
}

func (s *Server) populate(o entity.Order) orderView {
	v := orderView{Order: o, Customer: o.Customer.ID}
	if i := indexByID(s.customers, o.Customer.ID); i >= 0 {
		v.Customer = s.customers[i]
	}
	return v
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]orderView, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, s.populate(o))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// createOrder checks the customer and stock, takes the ordered quantities
// off stock and stores the order.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var o entity.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if o.OrderNumber == "" || len(o.Products) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid data", "orderNumber and products are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexByID(s.customers, o.Customer.ID) < 0 {
		writeError(w, http.StatusBadRequest, "Invalid data", "unknown customer")
		return
	}
	if slices.ContainsFunc(s.orders, func(e entity.Order) bool { return e.OrderNumber == o.OrderNumber }) {
		writeError(w, http.StatusConflict, "Order number already exists")
		return
	}
	next := slices.Clone(s.products)
	for _, line := range o.Products {
		i := indexByID(next, line.Product.ID)
		if i < 0 {
			writeError(w, http.StatusBadRequest, "Invalid data", "unknown product "+line.Name)
			return
		}
		if line.Quantity < 1 || next[i].Stock < line.Quantity {
			writeError(w, http.StatusBadRequest, "Invalid data", "insufficient stock for "+next[i].Name)
			return
		}
		next[i].Stock -= line.Quantity
	}
	s.products = next
	o.ID = newID()
	if o.OrderDate.IsZero() {
		o.OrderDate = s.now().UTC()
	}
	o.Customer = entity.CustomerRef{ID: o.Customer.ID}
	s.orders = append(s.orders, o)
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) latestOrderNumber(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var latest *string
	for _, o := range s.orders {
		if latest == nil || order.CompareNatural(o.OrderNumber, *latest) > 0 {
			n := o.OrderNumber
			latest = &n
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]*string{"latestOrderNumber": latest})
}

func (s *Server) findOrder(key string) int {
	return slices.IndexFunc(s.orders, func(o entity.Order) bool { return o.OrderNumber == key || o.ID == key })
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findOrder(chi.URLParam(r, "key"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, s.populate(s.orders[i]))
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findOrder(chi.URLParam(r, "key"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	s.orders = slices.Delete(s.orders, i, i+1)
	writeJSON(w, http.StatusOK, map[string]string{"status": "Order deleted"})
}
