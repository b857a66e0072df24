package metadata

import (
	"github.com/mssola/useragent"

	"github.com/MrEthical07/goSession/session"
)

// Device types reported by [UserAgentDetector].
const (
	DeviceBot        = "bot"
	DeviceSmartphone = "smartphone"
	DeviceTablet     = "tablet"
	DeviceDesktop    = "desktop"
)

// DeviceDetector parses a user-agent string. Fields it cannot determine are
// left empty.
type DeviceDetector interface {
	Detect(userAgent string) session.Device
}

// UserAgentDetector is a [DeviceDetector] built on mssola/useragent.
type UserAgentDetector struct{}

// Detect parses userAgent.
func (UserAgentDetector) Detect(userAgent string) session.Device {
	if userAgent == "" {
		return session.Device{}
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()

	var kind string
	switch {
	case ua.Bot():
		kind = DeviceBot
	case ua.Platform() == "iPad":
		kind = DeviceTablet
	case ua.Mobile():
		kind = DeviceSmartphone
	case ua.OS() != "":
		kind = DeviceDesktop
	}

	return session.Device{
		Browser: browser,
		OS:      ua.OSInfo().Name,
		Type:    kind,
	}
}
