package view

// Context is the per-request rendering context shared by every page. It is
// built once by middleware and merged into each template payload.
type Context struct {
	Device    Device
	IsDesktop bool
	IsPhone   bool
	IsTablet  bool
	Lang      string
	HTMLLang  string
	Path      string
	RequestID string
	Preview   bool
}

// NewContext classifies the user agent and fills the device flags.
func NewContext(userAgent string) Context {
	device := ClassifyDevice(userAgent)
	isDesktop, isPhone, isTablet := device.Flags()
	return Context{
		Device:    device,
		IsDesktop: isDesktop,
		IsPhone:   isPhone,
		IsTablet:  isTablet,
	}
}

var ordinals = [...]string{"One", "Two", "Three", "Four"}

// Numbers turns a zero-based index into the ordinal label used by the
// collection layout. Out-of-range indexes yield "".
func Numbers(index int) string {
	if index < 0 || index >= len(ordinals) {
		return ""
	}
	return ordinals[index]
}
