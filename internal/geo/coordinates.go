package geo

import (
	"math"

	"github.com/tiiuae/motion_planning/internal/types"
)

const earthRadiusMetres float64 = 6371000

// GlobalToLocal converts a geodetic position into the NED frame centred at home.
func GlobalToLocal(pos types.GlobalPosition, home types.GlobalPosition) types.LocalPosition {
	east, north := deltaXY(home.Lon, home.Lat, pos.Lon, pos.Lat)
	return types.LocalPosition{
		North: north,
		East:  east,
		Down:  -(pos.Alt - home.Alt),
	}
}

// LocalToGlobal is the inverse of GlobalToLocal for offsets well below the
// earth radius.
func LocalToGlobal(local types.LocalPosition, home types.GlobalPosition) types.GlobalPosition {
	lat := home.Lat + local.North/earthRadiusMetres*(180/math.Pi)
	lon := home.Lon + local.East/(earthRadiusMetres*math.Cos(home.Lat*(math.Pi/180)))*(180/math.Pi)

	return types.GlobalPosition{
		Lat: lat,
		Lon: lon,
		Alt: home.Alt - local.Down,
	}
}

// Convert difference between two geo coordinates into distances on X-axis and Y-axis (meters)
func deltaXY(lonFrom float64, latFrom float64, lonTo float64, latTo float64) (float64, float64) {
	dlon := lonTo - lonFrom
	dlat := latTo - latFrom
	dx := distance(lonFrom, latFrom, lonTo, latFrom)
	dy := distance(lonFrom, latFrom, lonFrom, latTo)

	return math.Copysign(dx, dlon), math.Copysign(dy, dlat)
}

// Haversine distance in metres
func distance(lonFrom float64, latFrom float64, lonTo float64, latTo float64) float64 {
	deltaLat := (latTo - latFrom) * (math.Pi / 180)
	deltaLon := (lonTo - lonFrom) * (math.Pi / 180)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(latFrom*(math.Pi/180))*math.Cos(latTo*(math.Pi/180))*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMetres * c
}
