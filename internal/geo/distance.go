package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for all surface distances.
const EarthRadiusKm = 6371.0088

// HaversineKm calculates the great-circle distance between two points (km)
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	lat1Rad := radians(lat1)
	lat2Rad := radians(lat2)
	deltaLat := radians(lat2 - lat1)
	deltaLon := radians(lon2 - lon1)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)

	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance3DKm combines the surface distance and the elevation change (meters)
// as the legs of a right triangle and returns the slope distance in km.
func Distance3DKm(lat1, lon1, ele1, lat2, lon2, ele2 float64) float64 {
	surface := HaversineKm(lat1, lon1, lat2, lon2)
	vertical := (ele2 - ele1) / 1000

	if vertical == 0 {
		return surface
	}
	return math.Sqrt(surface*surface + vertical*vertical)
}

func radians(d float64) float64 {
	return d * math.Pi / 180
}
