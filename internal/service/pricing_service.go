package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// PricingService computes the total price of a stay from the seasonal rate
// calendar.
type PricingService interface {
	// CalculateTotalPrice prices every night of [checkIn, checkOut) under
	// the rate plan, applies the plan discount and the resort tax, and
	// returns the quote. Returns ErrNoApplicableRate when any night has no
	// active calendar entry.
	CalculateTotalPrice(ctx context.Context, ratePlanID string, checkIn, checkOut time.Time, units int) (*domain.Quote, error)
}

type pricingService struct {
	rateRepo    repository.RateRepository
	catalogRepo repository.CatalogRepository
}

// NewPricingService creates a new PricingService
func NewPricingService(rateRepo repository.RateRepository, catalogRepo repository.CatalogRepository) PricingService {
	return &pricingService{
		rateRepo:    rateRepo,
		catalogRepo: catalogRepo,
	}
}

func (s *pricingService) CalculateTotalPrice(ctx context.Context, ratePlanID string, checkIn, checkOut time.Time, units int) (*domain.Quote, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.pricing.calculate_total_price")
	defer span.End()

	span.SetAttributes(
		attribute.String("rate_plan_id", ratePlanID),
		attribute.Int("units", units),
	)

	nights := domain.NightsBetween(checkIn, checkOut)
	if len(nights) == 0 {
		return nil, domain.ErrInvalidDateRange
	}
	if units < 1 {
		return nil, domain.ErrInvalidUnits
	}

	plan, err := s.catalogRepo.GetRatePlan(ctx, ratePlanID)
	if err != nil {
		return nil, err
	}
	resort, err := s.catalogRepo.GetResort(ctx, plan.ResortID)
	if err != nil {
		return nil, err
	}

	rates, err := s.rateRepo.ActiveForRange(ctx, ratePlanID, nights[0], checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate calendar: %w", err)
	}

	quote := &domain.Quote{
		RatePlanID: ratePlanID,
		Nights:     make([]domain.NightRate, 0, len(nights)),
	}
	for _, night := range nights {
		rate := firstCovering(rates, night)
		if rate == nil {
			return nil, fmt.Errorf("night %s: %w", night.Format("2006-01-02"), domain.ErrNoApplicableRate)
		}
		quote.Nights = append(quote.Nights, domain.NightRate{
			Night:        night,
			NightlyPrice: rate.NightlyPrice,
			RateID:       rate.ID,
		})
		quote.BasePrice += rate.NightlyPrice * float64(units)
	}

	quote.Discount = roundMoney(quote.BasePrice * plan.DiscountPercent / 100)
	discounted := quote.BasePrice - quote.Discount
	quote.Tax = roundMoney(discounted * resort.TaxRate)
	quote.Total = roundMoney(discounted + quote.Tax)
	quote.BasePrice = roundMoney(quote.BasePrice)

	span.SetAttributes(attribute.Float64("total", quote.Total))
	return quote, nil
}

// firstCovering picks the first calendar entry covering the night. The list
// is ordered newest created first, so overlapping seasons resolve to the
// most recently created entry.
func firstCovering(rates []*domain.SeasonalRate, night time.Time) *domain.SeasonalRate {
	for _, rate := range rates {
		if rate.Covers(night) {
			return rate
		}
	}
	return nil
}

// roundMoney rounds to two decimal places
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
