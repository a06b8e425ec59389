package services

// MinBufferFraction is the smallest buffer the outer surfaces accept.
const MinBufferFraction = 0.15

// RecommendedBuffer returns a buffer fraction sized to the daily distance.
func RecommendedBuffer(maxDailyKm float64) float64 {
	switch {
	case maxDailyKm < 150:
		return 0.40
	case maxDailyKm < 250:
		return 0.30
	case maxDailyKm < 400:
		return 0.25
	default:
		return 0.20
	}
}

// EffectiveBuffer applies the recommendation when percent is unset (<= 0)
// and raises explicit values to MinBufferFraction.
func EffectiveBuffer(maxDailyKm, percent float64) float64 {
	if percent <= 0 {
		return RecommendedBuffer(maxDailyKm)
	}
	f := percent / 100
	if f < MinBufferFraction {
		return MinBufferFraction
	}
	return f
}
