package controllers

import (
	"net/http"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/pkg/collection"
	"github.com/sheapwilliams/lunch/pkg/ctx"
)

type AdminController struct {
	orders *services.OrderService
}

func NewAdminController(orders *services.OrderService) *AdminController {
	return &AdminController{orders: orders}
}

// mealReport is one meal's line in the kitchen report.
type mealReport struct {
	Meal  string   `json:"meal"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// Orders returns the kitchen report for one date: every committed order
// grouped by meal, with headcounts.
func (ac *AdminController) Orders(c *ctx.Context) {
	date := c.Query("date")
	if date == "" {
		c.Error(http.StatusBadRequest, "Missing date")
		return
	}

	grouped, err := ac.orders.ForDate(date)
	if err != nil {
		c.Error(http.StatusInternalServerError, "Could not load orders")
		return
	}

	report := []mealReport{}
	for meal, orders := range grouped {
		report = append(report, mealReport{
			Meal:  meal,
			Count: len(orders),
			Users: collection.Map(orders, func(o models.Order) string { return o.User.Username }),
		})
	}

	c.Success(map[string]interface{}{
		"date":   date,
		"report": report,
	})
}
