package ticketing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"rail_booker/internal/ticketing"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestFare(t *testing.T) {
	avgKM := d("50")
	costPerKM := d("0.45")

	t.Run("base rate", func(t *testing.T) {
		// 1.0 * (4-1) * 50 * 0.45 = 67.50
		fare := ticketing.Fare(d("1"), 4, avgKM, costPerKM)
		assert.True(t, fare.Equal(d("67.50")), "got %s", fare)
	})

	t.Run("carriage multiplier scales linearly", func(t *testing.T) {
		base := ticketing.Fare(d("1"), 4, avgKM, costPerKM)
		first := ticketing.Fare(d("2"), 4, avgKM, costPerKM)
		assert.True(t, first.Equal(base.Mul(d("2"))))
	})

	t.Run("rounds half up to two places", func(t *testing.T) {
		// 1.0 * 1 * 1 * 0.005 = 0.005 -> 0.01
		fare := ticketing.Fare(d("1"), 2, d("1"), d("0.005"))
		assert.True(t, fare.Equal(d("0.01")), "got %s", fare)

		// 1.0 * 1 * 1 * 0.004 = 0.004 -> 0.00
		fare = ticketing.Fare(d("1"), 2, d("1"), d("0.004"))
		assert.True(t, fare.Equal(d("0")), "got %s", fare)
	})

	t.Run("single stop run is free", func(t *testing.T) {
		fare := ticketing.Fare(d("1.5"), 1, avgKM, costPerKM)
		assert.True(t, fare.IsZero())
	})

	t.Run("deterministic", func(t *testing.T) {
		a := ticketing.Fare(d("1.75"), 7, avgKM, costPerKM)
		b := ticketing.Fare(d("1.75"), 7, avgKM, costPerKM)
		assert.True(t, a.Equal(b))
	})
}
