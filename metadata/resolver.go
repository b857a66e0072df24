package metadata

import (
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/session"
)

// Option configures a [Resolver].
type Option func(*Resolver)

// WithDevMode makes every request resolve to [LoopbackIP].
func WithDevMode(dev bool) Option {
	return func(r *Resolver) { r.devMode = dev }
}

// WithIndependentDevice parses the user agent even when the geolocation
// lookup misses. By default a miss yields the all-Unknown snapshot.
func WithIndependentDevice() Option {
	return func(r *Resolver) { r.independentDevice = true }
}

// WithLogger sets the logger used for degraded lookups.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver computes [session.Metadata] for a login request. It is safe for
// concurrent use when its locator and detector are.
type Resolver struct {
	locator           GeoLocator
	detector          DeviceDetector
	devMode           bool
	independentDevice bool
	logger            *zap.Logger
}

// NewResolver builds a resolver. A nil locator behaves as [NopLocator] and a
// nil detector as [UserAgentDetector].
func NewResolver(locator GeoLocator, detector DeviceDetector, opts ...Option) *Resolver {
	if locator == nil {
		locator = NopLocator{}
	}
	if detector == nil {
		detector = UserAgentDetector{}
	}
	r := &Resolver{
		locator:  locator,
		detector: detector,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClientIP returns the address Resolve would record for info.
func (r *Resolver) ClientIP(info RequestInfo) string {
	return ClientIP(info, r.devMode)
}

// Resolve returns the metadata snapshot for a request. Every string field is
// populated, with [session.Unknown] standing in for anything not resolved.
func (r *Resolver) Resolve(info RequestInfo, userAgent string) session.Metadata {
	ip := r.ClientIP(info)

	geo, found, err := r.locator.Lookup(ip)
	if err != nil {
		r.logger.Debug("geolocation lookup failed", zap.String("ip", ip), zap.Error(err))
		found = false
	}

	if !found {
		md := session.Metadata{
			Location: session.UnknownLocation(),
			Device:   session.UnknownDevice(),
			IP:       ip,
		}
		if r.independentDevice {
			md.Device = r.device(userAgent)
		}
		return md
	}

	loc := session.Location{
		Country: orUnknown(CountryName(geo.CountryCode)),
		City:    orUnknown(geo.City),
	}
	if geo.HasCoordinates {
		loc.Latitude = geo.Latitude
		loc.Longitude = geo.Longitude
	}

	return session.Metadata{
		Location: loc,
		Device:   r.device(userAgent),
		IP:       ip,
	}
}

func (r *Resolver) device(userAgent string) session.Device {
	d := r.detector.Detect(userAgent)
	return session.Device{
		Browser: orUnknown(d.Browser),
		OS:      orUnknown(d.OS),
		Type:    orUnknown(d.Type),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return session.Unknown
	}
	return s
}
