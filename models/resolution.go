package models

// ResolutionMinutes maps a charting resolution token to its width in
// minutes. Intraday tokens are plain minute counts; 1D/1W/1M are flat
// approximations (1M is exactly 30 days, not a calendar month). An
// unrecognized token degrades to 60 minutes rather than failing the query.
func ResolutionMinutes(resolution string) int {
	switch resolution {
	case "1":
		return 1
	case "5":
		return 5
	case "15":
		return 15
	case "30":
		return 30
	case "60":
		return 60
	case "240":
		return 240
	case "1D":
		return 1440
	case "1W":
		return 10080
	case "1M":
		return 43200
	default:
		return 60
	}
}
