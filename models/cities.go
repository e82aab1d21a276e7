package models

// CityView is the default map viewport for a city.
type CityView struct {
	City   string     `json:"city"`
	Center [2]float64 `json:"center"`
	Zoom   int        `json:"zoom"`
}

// KnownCities lists every city with a published dataset.
var KnownCities = []string{
	"amsterdam", "athens", "barcelona", "berlin",
	"budapest", "lisbon", "london", "paris",
	"rome", "vienna",
}

// CityViews maps city to its map center (lat, lng) and zoom.
var CityViews = map[string]CityView{
	"amsterdam": {City: "amsterdam", Center: [2]float64{52.3676, 4.9041}, Zoom: 12},
	"athens":    {City: "athens", Center: [2]float64{37.9838, 23.7275}, Zoom: 12},
	"barcelona": {City: "barcelona", Center: [2]float64{41.3874, 2.1686}, Zoom: 12},
	"berlin":    {City: "berlin", Center: [2]float64{52.52, 13.405}, Zoom: 12},
	"budapest":  {City: "budapest", Center: [2]float64{47.4979, 19.0402}, Zoom: 12},
	"lisbon":    {City: "lisbon", Center: [2]float64{38.7223, -9.139}, Zoom: 12},
	"london":    {City: "london", Center: [2]float64{51.5072, -0.1276}, Zoom: 11},
	"paris":     {City: "paris", Center: [2]float64{48.8566, 2.3522}, Zoom: 12},
	"rome":      {City: "rome", Center: [2]float64{41.9028, 12.4964}, Zoom: 12},
	"vienna":    {City: "vienna", Center: [2]float64{48.2082, 16.3738}, Zoom: 12},
}

// IsKnownCity reports whether city has a dataset.
func IsKnownCity(city string) bool {
	_, ok := CityViews[NormaliseCity(city)]
	return ok
}
