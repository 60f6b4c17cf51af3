package services

import (
	"encoding/json"
	"fmt"

	"github.com/sheapwilliams/lunch/app/models"
	"github.com/sheapwilliams/lunch/pkg/collection"
	"github.com/sheapwilliams/lunch/pkg/storage"
)

// MenuService serves the weekly menu. The menu file is loaded once at boot
// and held immutable for the process lifetime; updating the menu means
// replacing the file and restarting.
type MenuService struct {
	menu models.Menu
}

// NewMenuService loads the menu JSON from the given disk and path.
func NewMenuService(disk storage.Disk, path string) (*MenuService, error) {
	data, err := disk.Get(path)
	if err != nil {
		return nil, fmt.Errorf("menu: read %s: %w", path, err)
	}

	var menu models.Menu
	if err := json.Unmarshal(data, &menu); err != nil {
		return nil, fmt.Errorf("menu: parse %s: %w", path, err)
	}
	if menu.DailyOptions == nil {
		menu.DailyOptions = map[string]models.DayMenu{}
	}

	return &MenuService{menu: menu}, nil
}

// NewMenuServiceFromMenu wraps an already-built menu (used by tests).
func NewMenuServiceFromMenu(menu models.Menu) *MenuService {
	if menu.DailyOptions == nil {
		menu.DailyOptions = map[string]models.DayMenu{}
	}
	return &MenuService{menu: menu}
}

// Menu returns the full offering.
func (s *MenuService) Menu() models.Menu { return s.menu }

// Dates returns the offered service dates in ascending order.
func (s *MenuService) Dates() []string {
	return collection.SortedKeys(s.menu.DailyOptions)
}

// MealsFor returns the meals offered on date, or nil when the date is not
// on the menu.
func (s *MenuService) MealsFor(date string) []models.Meal {
	return s.menu.DailyOptions[date].Meals
}

// Offers reports whether meal is offered on date.
func (s *MenuService) Offers(date, meal string) bool {
	_, ok := s.Price(date, meal)
	return ok
}

// Price resolves the price of meal on date. The second return is false when
// the date or meal is not on the menu.
func (s *MenuService) Price(date, meal string) (float64, bool) {
	for _, m := range s.menu.DailyOptions[date].Meals {
		if m.Name == meal {
			return m.Price, true
		}
	}
	return 0, false
}
