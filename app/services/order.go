package services

import (
	"fmt"
	"sort"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/app/repositories"
	"github.com/sheapwilliams/lunch/pkg/collection"
	"github.com/sheapwilliams/lunch/pkg/session"
)

// OrderService commits carts into the durable order table and serves the
// read side: per-user order lists and per-payment receipts.
type OrderService struct {
	orders *repositories.OrderRepository
	cart   *CartService
	menu   *MenuService
	cutoff *CutoffPolicy
}

func NewOrderService(orders *repositories.OrderRepository, cart *CartService, menu *MenuService, cutoff *CutoffPolicy) *OrderService {
	return &OrderService{orders: orders, cart: cart, menu: menu, cutoff: cutoff}
}

// SubmitCart commits the cart as orders in one transaction, then clears the
// cart. Entries are re-validated at submit time: a date whose window has
// since closed is skipped and reported, and a meal that no longer resolves
// is written with price 0 rather than failing the batch. A commit failure
// rolls back every row.
func (s *OrderService) SubmitCart(sess *session.Session, userID uint) ([]models.Order, []Rejection, error) {
	cart := s.cart.Snapshot(sess, userID)
	if len(cart) == 0 {
		return nil, nil, ErrEmptyCart
	}

	rejections := []Rejection{}
	open := map[string]string{}
	for date, meal := range cart {
		closed, err := s.cutoff.IsClosed(date)
		if err != nil {
			rejections = append(rejections, Rejection{Date: date, Reason: ReasonInvalidDate})
			continue
		}
		if closed {
			rejections = append(rejections, Rejection{Date: date, Reason: ReasonClosed})
			continue
		}
		open[date] = meal
	}

	if len(open) == 0 {
		return nil, rejections, ErrEmptyCart
	}

	orders, err := s.writeCart(userID, open, nil)
	if err != nil {
		return nil, rejections, err
	}

	s.cart.Clear(sess, userID)
	return orders, rejections, nil
}

// writeCart upserts one order per cart entry inside a single transaction.
// When paymentRef is non-nil every row carries it, linking the rows into
// one receipt.
func (s *OrderService) writeCart(userID uint, cart map[string]string, paymentRef *string) ([]models.Order, error) {
	dates := collection.SortedKeys(cart)
	orders := make([]models.Order, 0, len(cart))

	err := s.orders.Transaction(func(tx *repositories.OrderRepository) error {
		for _, date := range dates {
			meal := cart[date]
			price, _ := s.menu.Price(date, meal)
			order := models.Order{
				UserID:     userID,
				Date:       date,
				MealName:   meal,
				Price:      price,
				PaymentRef: paymentRef,
			}
			if err := tx.Upsert(&order); err != nil {
				return fmt.Errorf("order: upsert %s: %w", date, err)
			}
			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Delete removes the user's order for date. Reports whether a row existed.
func (s *OrderService) Delete(userID uint, date string) (bool, error) {
	existing, err := s.orders.ListForUser(userID)
	if err != nil {
		return false, err
	}
	found := false
	for _, o := range existing {
		if o.Date == date {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	return true, s.orders.Delete(userID, date)
}

// ListForUser returns the user's orders, soonest date first.
func (s *OrderService) ListForUser(userID uint) ([]models.Order, error) {
	return s.orders.ListForUser(userID)
}

// ReceiptGroup is one past checkout: all orders paid under one reference.
type ReceiptGroup struct {
	PaymentRef string         `json:"payment_ref"`
	Orders     []models.Order `json:"orders"`
	Total      float64        `json:"total"`
}

// Receipts groups the user's payment-linked orders by payment reference so
// that one checkout shows as one receipt instead of one row per day.
func (s *OrderService) Receipts(userID uint) ([]ReceiptGroup, error) {
	orders, err := s.orders.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	paid := collection.Filter(orders, func(o models.Order) bool {
		return o.PaymentRef != nil && *o.PaymentRef != ""
	})

	grouped := collection.GroupBy(paid, func(o models.Order) string {
		return *o.PaymentRef
	})

	out := make([]ReceiptGroup, 0, len(grouped))
	for ref, group := range grouped {
		out = append(out, ReceiptGroup{
			PaymentRef: ref,
			Orders:     group,
			Total:      collection.Sum(group, func(o models.Order) float64 { return o.Price }),
		})
	}

	// Newest checkout first, by the earliest date it covers.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Orders[0].Date > out[j].Orders[0].Date
	})
	return out, nil
}

// Receipt returns the user's orders for one payment reference.
func (s *OrderService) Receipt(userID uint, ref string) (*ReceiptGroup, error) {
	orders, err := s.orders.FindByPaymentRef(userID, ref)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrReceiptNotFound
	}
	return &ReceiptGroup{
		PaymentRef: ref,
		Orders:     orders,
		Total:      collection.Sum(orders, func(o models.Order) float64 { return o.Price }),
	}, nil
}

// ForDate returns every order for one service date grouped by meal, for the
// kitchen report.
func (s *OrderService) ForDate(date string) (map[string][]models.Order, error) {
	orders, err := s.orders.ForDate(date)
	if err != nil {
		return nil, err
	}
	return collection.GroupBy(orders, func(o models.Order) string { return o.MealName }), nil
}
