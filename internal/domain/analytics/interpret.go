package analytics

// ConsistencyLabel interprets a coefficient of variation of race positions.
// Lower is steadier.
func ConsistencyLabel(score float64) string {
	switch {
	case score < 0.3:
		return "Excellent"
	case score < 0.7:
		return "Good"
	case score < 1.0:
		return "Variable"
	default:
		return "Unpredictable"
	}
}

// TrendLabel interprets the slope of race positions over time. A negative
// slope means positions are getting better.
func TrendLabel(score float64) string {
	switch {
	case score < -0.5:
		return "Improving"
	case score < -0.1:
		return "Slight Upturn"
	case score > 0.5:
		return "Declining"
	case score > 0.1:
		return "Slight Decline"
	default:
		return "Stable"
	}
}
