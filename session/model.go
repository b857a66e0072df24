package session

import "time"

// Unknown is the placeholder used for every metadata field that could not be
// resolved.
const Unknown = "Unknown"

// Session is a server-side session record.
//
// ID is not part of the persisted value; it is recovered from the storage key.
// A session with an empty UserID is anonymous.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Metadata  Metadata  `json:"metadata"`
}

// Authenticated reports whether the session is owned by an account.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Metadata is the device and location snapshot captured at login.
type Metadata struct {
	Location Location `json:"location"`
	Device   Device   `json:"device"`
	IP       string   `json:"ip"`
}

// Location is a best-effort geolocation of the login address.
type Location struct {
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Device is a best-effort description of the login user agent.
type Device struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Type    string `json:"type"`
}

// UnknownLocation returns the location used when geolocation misses.
func UnknownLocation() Location {
	return Location{Country: Unknown, City: Unknown}
}

// UnknownDevice returns the device used when user-agent parsing misses.
func UnknownDevice() Device {
	return Device{Browser: Unknown, OS: Unknown, Type: Unknown}
}
