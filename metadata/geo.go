package metadata

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// ErrInvalidIP is returned by locators for addresses that do not parse.
var ErrInvalidIP = errors.New("invalid ip address")

// GeoResult is the raw outcome of a successful lookup.
type GeoResult struct {
	CountryCode string
	City        string
	Latitude    float64
	Longitude   float64
	// HasCoordinates is false when the database carries no coordinate pair.
	HasCoordinates bool
}

// GeoLocator maps an address to a location. found is false on a miss.
type GeoLocator interface {
	Lookup(ip string) (result GeoResult, found bool, err error)
}

// NopLocator misses every lookup.
type NopLocator struct{}

// Lookup always reports a miss.
func (NopLocator) Lookup(string) (GeoResult, bool, error) {
	return GeoResult{}, false, nil
}

// MaxMindLocator looks addresses up in a GeoLite2/GeoIP2 City database.
type MaxMindLocator struct {
	reader *geoip2.Reader
}

// OpenMaxMind opens the database at path. The caller must Close it.
func OpenMaxMind(path string) (*MaxMindLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %q: %w", path, err)
	}
	return &MaxMindLocator{reader: reader}, nil
}

// Lookup resolves ip. Private and unknown ranges are reported as a miss.
func (l *MaxMindLocator) Lookup(ip string) (GeoResult, bool, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return GeoResult{}, false, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	rec, err := l.reader.City(parsed)
	if err != nil {
		return GeoResult{}, false, err
	}
	if rec.Country.IsoCode == "" && rec.City.GeoNameID == 0 {
		return GeoResult{}, false, nil
	}

	res := GeoResult{
		CountryCode: rec.Country.IsoCode,
		City:        rec.City.Names["en"],
	}
	if rec.Location.Latitude != 0 || rec.Location.Longitude != 0 {
		res.Latitude = rec.Location.Latitude
		res.Longitude = rec.Location.Longitude
		res.HasCoordinates = true
	}
	return res, true, nil
}

// Close releases the database.
func (l *MaxMindLocator) Close() error {
	return l.reader.Close()
}
