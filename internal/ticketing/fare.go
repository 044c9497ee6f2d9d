package ticketing

import (
	"github.com/shopspring/decimal"

	"rail_booker/internal/config"
	"rail_booker/internal/models"
)

// Fare prices a journey on a schedule with stopCount stops for a carriage
// type with the given multiplier:
//
//	fare = increaseRate * (stopCount - 1) * avgKM * costPerKM
//
// The distance term uses the configured average kilometres between
// consecutive stops over the whole run, not the segment actually traveled.
// The result is rounded half-up to 2 decimal places.
func Fare(increaseRate decimal.Decimal, stopCount int, avgKM, costPerKM decimal.Decimal) decimal.Decimal {
	if stopCount < 1 {
		stopCount = 1
	}
	legs := decimal.NewFromInt(int64(stopCount - 1))
	return increaseRate.Mul(legs).Mul(avgKM).Mul(costPerKM).Round(2)
}

// ScheduleFare prices the given schedule/carriage pairing with the fare
// constants from the environment.
func ScheduleFare(schedule *models.Schedule, carriage *models.Carriage) decimal.Decimal {
	return Fare(carriage.IncreaseRate, len(schedule.Stops), config.AvgKMBetweenStations(), config.CostPerKM())
}
