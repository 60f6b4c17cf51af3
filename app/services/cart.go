package services

import (
	"github.com/sheapwilliams/lunch/pkg/metrics"
	"github.com/sheapwilliams/lunch/pkg/session"
)

// NoSelection is the sentinel meal value meaning "remove my choice for this
// date". Clients send it instead of a meal name to clear a single day.
const NoSelection = "None"

// Session keys owned by the cart.
const (
	cartKey      = "cart"
	cartOwnerKey = "cart_owner"
)

// Selection is one requested cart mutation: choose meal for date. An empty
// meal or the NoSelection sentinel removes the date's entry instead.
type Selection struct {
	Date string `json:"date"`
	Meal string `json:"meal"`
}

// Rejection reports why one selection in a batch was skipped.
type Rejection struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// Rejection reasons.
const (
	ReasonClosed      = "ordering closed"
	ReasonUnknownMeal = "meal not offered"
	ReasonInvalidDate = "invalid date"
)

// CartService manages the session-scoped pending cart: a mapping from
// service date to the chosen meal name.
//
// The cart is bound to the user who wrote it. If the session's bound user
// no longer matches the active identity, the stale cart is discarded before
// any operation, so a cart can never leak across logins on a shared session.
type CartService struct {
	menu   *MenuService
	cutoff *CutoffPolicy
}

func NewCartService(menu *MenuService, cutoff *CutoffPolicy) *CartService {
	return &CartService{menu: menu, cutoff: cutoff}
}

// Apply evaluates a batch of selections independently: valid pairs are
// committed, invalid ones are skipped and reported. One bad date never
// aborts the batch.
func (s *CartService) Apply(sess *session.Session, userID uint, selections []Selection) []Rejection {
	cart := s.ownedCart(sess, userID)
	rejections := []Rejection{}

	for _, sel := range selections {
		if sel.Meal == "" || sel.Meal == NoSelection {
			delete(cart, sel.Date)
			continue
		}

		closed, err := s.cutoff.IsClosed(sel.Date)
		if err != nil {
			rejections = append(rejections, Rejection{Date: sel.Date, Reason: ReasonInvalidDate})
			metrics.CartUpdates.WithLabelValues("rejected").Inc()
			continue
		}
		if closed {
			rejections = append(rejections, Rejection{Date: sel.Date, Reason: ReasonClosed})
			metrics.CartUpdates.WithLabelValues("rejected").Inc()
			continue
		}

		if !s.menu.Offers(sel.Date, sel.Meal) {
			rejections = append(rejections, Rejection{Date: sel.Date, Reason: ReasonUnknownMeal})
			metrics.CartUpdates.WithLabelValues("rejected").Inc()
			continue
		}

		cart[sel.Date] = sel.Meal
		metrics.CartUpdates.WithLabelValues("applied").Inc()
	}

	s.store(sess, userID, cart)
	return rejections
}

// Remove drops the entry for date if present; no-op otherwise.
func (s *CartService) Remove(sess *session.Session, userID uint, date string) {
	cart := s.ownedCart(sess, userID)
	delete(cart, date)
	s.store(sess, userID, cart)
}

// Clear empties the cart.
func (s *CartService) Clear(sess *session.Session, userID uint) {
	s.store(sess, userID, map[string]string{})
}

// Snapshot returns a read-only copy of the cart: date → meal name.
func (s *CartService) Snapshot(sess *session.Session, userID uint) map[string]string {
	cart := s.ownedCart(sess, userID)
	out := make(map[string]string, len(cart))
	for d, m := range cart {
		out[d] = m
	}
	return out
}

// Total sums the resolved price of every cart entry. A meal that no longer
// resolves against the menu contributes 0 rather than failing.
func (s *CartService) Total(cart map[string]string) float64 {
	var total float64
	for date, meal := range cart {
		price, _ := s.menu.Price(date, meal)
		total += price
	}
	return total
}

// ownedCart loads the cart, discarding it first when the session's bound
// user does not match the active identity.
func (s *CartService) ownedCart(sess *session.Session, userID uint) map[string]string {
	if owner, ok := sess.GetUint(cartOwnerKey); !ok || owner != userID {
		return map[string]string{}
	}
	cart, ok := sess.GetStringMap(cartKey)
	if !ok {
		return map[string]string{}
	}
	return cart
}

// store writes the cart back and refreshes the ownership binding.
func (s *CartService) store(sess *session.Session, userID uint, cart map[string]string) {
	sess.Set(cartKey, cart)
	sess.Set(cartOwnerKey, userID)
}
