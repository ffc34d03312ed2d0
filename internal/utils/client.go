package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	ua "github.com/mssola/user_agent"
)

// GetRealIP returns the client address, preferring proxy headers.
// X-Real-IP wins, then the first public address in X-Forwarded-For,
// then gin's ClientIP.
func GetRealIP(c *gin.Context) string {
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		if ip := net.ParseIP(realIP); ip != nil && !ip.IsPrivate() {
			return realIP
		}
	}

	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		var first string
		for _, part := range strings.Split(forwarded, ",") {
			candidate := strings.TrimSpace(part)
			ip := net.ParseIP(candidate)
			if ip == nil {
				continue
			}
			if first == "" {
				first = candidate
			}
			if !ip.IsPrivate() && !ip.IsLoopback() {
				return candidate
			}
		}
		if first != "" {
			return first
		}
	}

	return c.ClientIP()
}

// DeviceInfo holds what the backend keeps about a client device
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, desktop, bot, unknown
	Platform   string `json:"platform"`    // android, ios, windows, mac, linux
	OS         string `json:"os"`
	Browser    string `json:"browser"`
}

var platforms = []struct {
	match    string
	platform string
}{
	{"android", "android"},
	{"iphone os", "ios"},
	{"ios", "ios"},
	{"windows", "windows"},
	{"mac os x", "mac"},
	{"linux", "linux"},
}

// ParseUserAgent extracts device information from a User-Agent header
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{DeviceType: "unknown", Platform: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(userAgent)
	info := DeviceInfo{DeviceType: "desktop", Platform: "unknown", OS: "Unknown", Browser: "Unknown"}

	switch {
	case parser.Bot():
		info.DeviceType = "bot"
	case parser.Mobile():
		info.DeviceType = "mobile"
	}

	osInfo := parser.OSInfo()
	if osInfo.Name != "" {
		info.OS = strings.TrimSpace(osInfo.Name + " " + osInfo.Version)
		name := strings.ToLower(osInfo.Name)
		for _, p := range platforms {
			if strings.Contains(name, p.match) {
				info.Platform = p.platform
				break
			}
		}
	}

	if browser, _ := parser.Browser(); browser != "" {
		info.Browser = browser
	}

	return info
}
