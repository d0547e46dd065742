package domain

import "time"

// SeasonalRate is a dated nightly price entry in a rate plan's calendar.
// A night is covered when ValidFrom <= night < ValidTo.
type SeasonalRate struct {
	ID           string    `json:"id"`
	RatePlanID   string    `json:"rate_plan_id"`
	ResortID     string    `json:"resort_id"`
	NightlyPrice float64   `json:"nightly_price"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidTo      time.Time `json:"valid_to"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResourceKind implements Resource
func (s *SeasonalRate) ResourceKind() ResourceKind {
	return KindSeasonalRate
}

// OwningResortID implements ResortScoped
func (s *SeasonalRate) OwningResortID() (string, bool) {
	return s.ResortID, s.ResortID != ""
}

// Covers reports whether the entry applies to the given night
func (s *SeasonalRate) Covers(night time.Time) bool {
	return !night.Before(s.ValidFrom) && night.Before(s.ValidTo)
}

// NightRate is the priced rate applied to a single night of a stay
type NightRate struct {
	Night        time.Time `json:"night"`
	NightlyPrice float64   `json:"nightly_price"`
	RateID       string    `json:"rate_id"`
}

// Quote is the priced result of a stay calculation
type Quote struct {
	RatePlanID string      `json:"rate_plan_id"`
	Nights     []NightRate `json:"nights"`
	BasePrice  float64     `json:"base_price"`
	Discount   float64     `json:"discount"`
	Tax        float64     `json:"tax"`
	Total      float64     `json:"total"`
}

// Night truncates a timestamp to its UTC calendar date
func Night(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NightsBetween lists every night of the half-open interval [checkIn, checkOut)
func NightsBetween(checkIn, checkOut time.Time) []time.Time {
	from := Night(checkIn)
	to := Night(checkOut)
	if !from.Before(to) {
		return nil
	}
	nights := make([]time.Time, 0, int(to.Sub(from).Hours()/24))
	for night := from; night.Before(to); night = night.AddDate(0, 0, 1) {
		nights = append(nights, night)
	}
	return nights
}
