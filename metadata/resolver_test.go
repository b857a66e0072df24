package metadata

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goSession/session"
)

type fakeLocator struct {
	result GeoResult
	found  bool
	err    error
	seen   []string
}

func (f *fakeLocator) Lookup(ip string) (GeoResult, bool, error) {
	f.seen = append(f.seen, ip)
	return f.result, f.found, f.err
}

type fakeDetector struct {
	device session.Device
	calls  int
}

func (f *fakeDetector) Detect(string) session.Device {
	f.calls++
	return f.device
}

func TestClientIPSelectionOrder(t *testing.T) {
	tests := []struct {
		name   string
		info   RequestInfo
		dev    bool
		expect string
	}{
		{
			name:   "dev mode wins",
			info:   RequestInfo{RemoteAddr: "10.0.0.1:443", Header: http.Header{"Cf-Connecting-Ip": {"1.1.1.1"}}},
			dev:    true,
			expect: LoopbackIP,
		},
		{
			name:   "cloudflare header first value",
			info:   RequestInfo{RemoteAddr: "10.0.0.1:443", Header: http.Header{"Cf-Connecting-Ip": {"1.1.1.1", "2.2.2.2"}, "X-Forwarded-For": {"3.3.3.3"}}},
			expect: "1.1.1.1",
		},
		{
			name:   "forwarded-for first entry",
			info:   RequestInfo{RemoteAddr: "10.0.0.1:443", Header: http.Header{"X-Forwarded-For": {"3.3.3.3, 4.4.4.4"}}},
			expect: "3.3.3.3",
		},
		{
			name:   "remote addr host",
			info:   RequestInfo{RemoteAddr: "10.0.0.1:443", Header: http.Header{}},
			expect: "10.0.0.1",
		},
		{
			name:   "remote addr without port",
			info:   RequestInfo{RemoteAddr: "10.0.0.1"},
			expect: "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expect, ClientIP(tt.info, tt.dev))
		})
	}
}

func TestResolveMissReturnsSingleFallback(t *testing.T) {
	loc := &fakeLocator{}
	det := &fakeDetector{device: session.Device{Browser: "Chrome", OS: "Mac OS X", Type: "desktop"}}
	r := NewResolver(loc, det)

	md := r.Resolve(RequestInfo{RemoteAddr: "203.0.113.9:5000"}, "Mozilla/5.0")

	require.Equal(t, "203.0.113.9", md.IP)
	require.Equal(t, session.UnknownLocation(), md.Location)
	require.Equal(t, session.UnknownDevice(), md.Device)
	require.Zero(t, det.calls, "device parsing must be skipped on a geolocation miss")
	require.Equal(t, []string{"203.0.113.9"}, loc.seen)
}

func TestResolveLookupErrorDegrades(t *testing.T) {
	r := NewResolver(&fakeLocator{err: errors.New("db gone"), found: true}, &fakeDetector{})

	md := r.Resolve(RequestInfo{RemoteAddr: "203.0.113.9:5000"}, "")
	require.Equal(t, session.UnknownLocation(), md.Location)
	require.Equal(t, session.UnknownDevice(), md.Device)
}

func TestResolveIndependentDevice(t *testing.T) {
	det := &fakeDetector{device: session.Device{Browser: "Firefox"}}
	r := NewResolver(NopLocator{}, det, WithIndependentDevice())

	md := r.Resolve(RequestInfo{RemoteAddr: "203.0.113.9:5000"}, "ua")
	require.Equal(t, session.UnknownLocation(), md.Location)
	require.Equal(t, session.Device{Browser: "Firefox", OS: session.Unknown, Type: session.Unknown}, md.Device)
}

func TestResolveHit(t *testing.T) {
	loc := &fakeLocator{found: true, result: GeoResult{
		CountryCode:    "DE",
		City:           "Berlin",
		Latitude:       52.52,
		Longitude:      13.405,
		HasCoordinates: true,
	}}
	det := &fakeDetector{device: session.Device{Browser: "Firefox", OS: "Linux"}}
	r := NewResolver(loc, det)

	md := r.Resolve(RequestInfo{Header: http.Header{"X-Forwarded-For": {"198.51.100.1"}}}, "ua")

	require.Equal(t, "198.51.100.1", md.IP)
	require.Equal(t, session.Location{Country: "Germany", City: "Berlin", Latitude: 52.52, Longitude: 13.405}, md.Location)
	require.Equal(t, session.Device{Browser: "Firefox", OS: "Linux", Type: session.Unknown}, md.Device)
}

func TestResolveHitWithPartialData(t *testing.T) {
	loc := &fakeLocator{found: true, result: GeoResult{CountryCode: "ZZ"}}
	r := NewResolver(loc, &fakeDetector{})

	md := r.Resolve(RequestInfo{RemoteAddr: "198.51.100.1:1"}, "")
	require.Equal(t, session.Location{Country: session.Unknown, City: session.Unknown}, md.Location)
	require.Equal(t, session.UnknownDevice(), md.Device)
}

func TestResolveDevModeUsesLoopback(t *testing.T) {
	loc := &fakeLocator{}
	r := NewResolver(loc, nil, WithDevMode(true))

	md := r.Resolve(RequestInfo{RemoteAddr: "203.0.113.9:5000"}, "")
	require.Equal(t, LoopbackIP, md.IP)
	require.Equal(t, []string{LoopbackIP}, loc.seen)
}

func TestCountryName(t *testing.T) {
	require.Equal(t, "Germany", CountryName("DE"))
	require.Equal(t, "Japan", CountryName("jp"))
	require.Empty(t, CountryName(""))
	require.Empty(t, CountryName("ZZ"))
	require.Empty(t, CountryName("not-a-code"))
}

func TestUserAgentDetector(t *testing.T) {
	var d UserAgentDetector

	require.Equal(t, session.Device{}, d.Detect(""))

	desktop := d.Detect("Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0")
	require.Equal(t, "Firefox", desktop.Browser)
	require.NotEmpty(t, desktop.OS)
	require.Equal(t, DeviceDesktop, desktop.Type)

	phone := d.Detect("Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1")
	require.Equal(t, DeviceSmartphone, phone.Type)

	bot := d.Detect("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	require.Equal(t, DeviceBot, bot.Type)
}
