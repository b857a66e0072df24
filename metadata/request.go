package metadata

import (
	"net"
	"net/http"
	"strings"
)

// LoopbackIP is reported for every request when development mode is on.
const LoopbackIP = "127.0.0.1"

const (
	headerCFConnectingIP = "CF-Connecting-IP"
	headerForwardedFor   = "X-Forwarded-For"
)

// RequestInfo is the network context of an inbound request.
type RequestInfo struct {
	RemoteAddr string
	Header     http.Header
}

// FromHTTP captures the network context of r.
func FromHTTP(r *http.Request) RequestInfo {
	return RequestInfo{
		RemoteAddr: r.RemoteAddr,
		Header:     r.Header.Clone(),
	}
}

// ClientIP selects the client address. In development mode it is always
// [LoopbackIP]. Otherwise the first CF-Connecting-IP value wins, then the
// first comma-separated X-Forwarded-For entry, then the connection address.
func ClientIP(info RequestInfo, devMode bool) string {
	if devMode {
		return LoopbackIP
	}

	if values := info.Header.Values(headerCFConnectingIP); len(values) > 0 {
		if ip := strings.TrimSpace(values[0]); ip != "" {
			return ip
		}
	}

	if xff := info.Header.Get(headerForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	return remoteHost(info.RemoteAddr)
}

func remoteHost(addr string) string {
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
