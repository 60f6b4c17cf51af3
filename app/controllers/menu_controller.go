package controllers

import (
	"net/http"

	"github.com/sheapwilliams/lunch/app/services"
	"github.com/sheapwilliams/lunch/config"
	"github.com/sheapwilliams/lunch/pkg/ctx"
)

type MenuController struct {
	menu   *services.MenuService
	cutoff *services.CutoffPolicy
}

func NewMenuController(menu *services.MenuService, cutoff *services.CutoffPolicy) *MenuController {
	return &MenuController{menu: menu, cutoff: cutoff}
}

// menuDay is one service date with its offering and window state.
type menuDay struct {
	Date   string      `json:"date"`
	Meals  interface{} `json:"meals"`
	Closed bool        `json:"closed"`
}

// Show returns the full menu with a per-date closed flag so clients can
// grey out dates whose window has passed.
func (mc *MenuController) Show(c *ctx.Context) {
	days := []menuDay{}
	for _, date := range mc.menu.Dates() {
		closed, err := mc.cutoff.IsClosed(date)
		if err != nil {
			c.Error(http.StatusInternalServerError, "Could not load menu")
			return
		}
		days = append(days, menuDay{
			Date:   date,
			Meals:  mc.menu.MealsFor(date),
			Closed: closed,
		})
	}
	c.Success(map[string]interface{}{"days": days})
}

// Location returns the restaurant's public details.
func (mc *MenuController) Location(c *ctx.Context) {
	c.Success(map[string]interface{}{
		"name":     config.LocationName(),
		"timezone": config.LocationTimezone(),
		"cutoff":   config.OrderCutoff(),
	})
}
