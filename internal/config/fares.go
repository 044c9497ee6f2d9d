package config

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Fare constants. The pricing model charges per assumed kilometre between
// consecutive stops rather than measured track distance.
func AvgKMBetweenStations() decimal.Decimal {
	return decimalEnv("AVG_KM_BETWEEN_STATION", "50")
}

func CostPerKM() decimal.Decimal {
	return decimalEnv("COST_PER_KM", "0.45")
}

func decimalEnv(key, defaultValue string) decimal.Decimal {
	raw := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		logrus.WithError(err).Warnf("invalid decimal in %s, using default %s", key, defaultValue)
		d, _ = decimal.NewFromString(defaultValue)
	}
	return d
}
