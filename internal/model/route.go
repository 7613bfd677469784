package model

// Route is the drive between an origin and a destination as reported by the
// routing service.
type Route struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DurationText  string  `json:"duration_text"`
	DistanceText  string  `json:"distance_text"`
	DistanceMiles float64 `json:"distance_miles"`
}
