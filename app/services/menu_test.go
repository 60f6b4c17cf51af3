package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMenuDatesSorted(t *testing.T) {
	menu := testMenu()
	assert.Equal(t, []string{"2026-03-02", "2026-03-03"}, menu.Dates())
}

func TestMenuPriceResolution(t *testing.T) {
	menu := testMenu()

	price, ok := menu.Price("2026-03-02", "Turkey Club")
	assert.True(t, ok)
	assert.Equal(t, 9.0, price)

	_, ok = menu.Price("2026-03-02", "Lobster Thermidor")
	assert.False(t, ok)

	_, ok = menu.Price("2026-12-25", "Turkey Club")
	assert.False(t, ok, "date not on the menu")
}

func TestMenuMealsFor(t *testing.T) {
	menu := testMenu()
	assert.Len(t, menu.MealsFor("2026-03-02"), 2)
	assert.Nil(t, menu.MealsFor("2026-12-25"))
	assert.False(t, menu.Offers("2026-12-25", "Turkey Club"))
}
