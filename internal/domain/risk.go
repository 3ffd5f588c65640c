package domain

import "math"

// RiskLevel is the discrete fire-danger rating.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
	RiskExtreme  RiskLevel = "EXTREME"
)

// RiskAssessment is a scored fire-danger rating for one station context.
type RiskAssessment struct {
	Score float64   `json:"score"`
	Level RiskLevel `json:"level"`
}

// Defaults substituted for missing observation fields. Each substitution is
// a DataGap the caller should surface as a warning, never hide.
const (
	defaultOneHourFM        = 30.0
	defaultRelativeHumidity = 50.0
)

// ScoreFireDanger computes the 0-100 weighted fire-danger score from the
// latest NFDRS and weather observations. Either argument may be nil; missing
// fields take the documented defaults. The result is clamped to [0,100] and
// rounded to two decimals.
func ScoreFireDanger(fuel *FuelObservation, weather *WeatherObservation) float64 {
	bi := fieldOr(fuelField(fuel, func(f *FuelObservation) *float64 { return f.BurningIndex }), 0)
	ic := fieldOr(fuelField(fuel, func(f *FuelObservation) *float64 { return f.IgnitionComponent }), 0)
	sc := fieldOr(fuelField(fuel, func(f *FuelObservation) *float64 { return f.SpreadComponent }), 0)
	kbdi := fieldOr(fuelField(fuel, func(f *FuelObservation) *float64 { return f.KBDI }), 0)
	oneHrFM := fieldOr(fuelField(fuel, func(f *FuelObservation) *float64 { return f.OneHourFM }), defaultOneHourFM)

	var wind, rh float64 = 0, defaultRelativeHumidity
	if weather != nil {
		wind = fieldOr(weather.WindSpeed, 0)
		rh = fieldOr(weather.RelativeHumidity, defaultRelativeHumidity)
	}

	score := math.Min(bi/2, 100) * 0.25
	score += ic * 0.20
	score += math.Min(sc, 100) * 0.15
	score += (kbdi / 8) * 0.10
	score += math.Max(0, 100-oneHrFM*3.33) * 0.15
	score += math.Min(wind*3, 100) * 0.10
	score += math.Max(0, 100-rh) * 0.05

	return math.Round(clamp(score, 0, 100)*100) / 100
}

// LevelForScore buckets a score into the five-level rating at 20/40/60/80.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score < 20:
		return RiskLow
	case score < 40:
		return RiskModerate
	case score < 60:
		return RiskHigh
	case score < 80:
		return RiskVeryHigh
	default:
		return RiskExtreme
	}
}

// AssessFireDanger scores and buckets in one step.
func AssessFireDanger(fuel *FuelObservation, weather *WeatherObservation) RiskAssessment {
	score := ScoreFireDanger(fuel, weather)
	return RiskAssessment{Score: score, Level: LevelForScore(score)}
}

func fuelField(fuel *FuelObservation, get func(*FuelObservation) *float64) *float64 {
	if fuel == nil {
		return nil
	}
	return get(fuel)
}

func fieldOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
