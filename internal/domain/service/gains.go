package service

import "FinTrack/internal/domain/models"

// GainsCalculator turns one price table into a per-asset gains result.
type GainsCalculator interface {
	Compute(table models.PriceTable, asOf models.Date, horizons []models.Horizon) (models.GainsResult, error)
}
