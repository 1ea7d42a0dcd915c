package view

import (
	"regexp"
	"strings"

	"github.com/mileusna/useragent"
)

// Kindle Fire (KFxxWI) and Galaxy Tab (SM-T, SM-X, SM-P) model ids.
var tabletModelPattern = regexp.MustCompile(`\b(KF[A-Z]{2,6}|SM-[TXP]\d{3})`)

// Device is the coarse device class used to pick layouts.
type Device string

const (
	DeviceDesktop Device = "desktop"
	DevicePhone   Device = "mobile"
	DeviceTablet  Device = "tablet"
)

// ClassifyDevice parses a User-Agent header. Empty or unparseable values are
// treated as desktop.
func ClassifyDevice(userAgent string) Device {
	trimmed := strings.TrimSpace(userAgent)
	if trimmed == "" {
		return DeviceDesktop
	}
	ua := useragent.Parse(trimmed)
	switch {
	case ua.Tablet || isTabletUA(trimmed):
		return DeviceTablet
	case ua.Mobile:
		return DevicePhone
	default:
		return DeviceDesktop
	}
}

// isTabletUA catches Android tablets the parser reports as phones. Android
// browsers only add the "Mobile" token on phones.
func isTabletUA(userAgent string) bool {
	if tabletModelPattern.MatchString(userAgent) {
		return true
	}
	return strings.Contains(userAgent, "Android") && !strings.Contains(userAgent, "Mobile")
}

// Flags returns isDesktop, isPhone and isTablet. Exactly one is true.
func (d Device) Flags() (isDesktop, isPhone, isTablet bool) {
	switch d {
	case DevicePhone:
		return false, true, false
	case DeviceTablet:
		return false, false, true
	default:
		return true, false, false
	}
}
