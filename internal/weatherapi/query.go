package weatherapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidCoordinates - lat или lon не число либо вне допустимого диапазона.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// QueryFromValues собирает Query из параметров city или lat и lon.
// Координаты учитываются, только когда переданы обе.
func QueryFromValues(v url.Values) (Query, error) {
	q := Query{City: strings.TrimSpace(v.Get("city"))}

	rawLat, rawLon := strings.TrimSpace(v.Get("lat")), strings.TrimSpace(v.Get("lon"))
	if rawLat == "" || rawLon == "" {
		return q, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || lat < -90 || lat > 90 {
		return Query{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil || lon < -180 || lon > 180 {
		return Query{}, ErrInvalidCoordinates
	}
	q.Lat, q.Lon = &lat, &lon
	return q, nil
}
