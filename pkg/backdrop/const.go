package backdrop

import "time"

// engineName is the name of the backdrop engine
const engineName = "backdrop"

// Preference keys for the backdrop engine
const (
	enginePrefix       = engineName + "_"
	IntervalPrefKey    = enginePrefix + "interval_seconds"   // IntervalPrefKey is used to set and retrieve the int rotation interval in seconds; 0 disables rotation
	BlurPrefKey        = enginePrefix + "blur_pixels"        // BlurPrefKey is used to set and retrieve the int backdrop blur radius in pixels
	ProvidersPrefKey   = enginePrefix + "providers"          // ProvidersPrefKey is used to set and retrieve the comma separated provider rotation order
	FitPrefKey         = enginePrefix + "fit_enabled"        // FitPrefKey is used to set and retrieve the boolean flag for viewport fitting
	FaceBoostPrefKey   = enginePrefix + "face_boost_enabled" // FaceBoostPrefKey is used to set and retrieve the boolean flag for face aware cropping
	DeviceClassPrefKey = enginePrefix + "device_class"       // DeviceClassPrefKey is used to set and retrieve the device class string
)

// Rotation interval bounds in seconds. An interval of zero disables the
// rotation timer entirely; manual swaps still work.
const (
	IntervalDisabled       = 0
	MinIntervalSeconds     = 5
	MaxIntervalSeconds     = 86400
	DefaultIntervalSeconds = 300
	DefaultBlurPixels      = 0
)

// DefaultViewport is used until a client reports its real viewport.
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// DeviceClass groups clients by capability so blur and analysis cost can be
// capped on weaker hardware.
type DeviceClass int

// DeviceClass constants
const (
	DeviceDesktop DeviceClass = iota
	DeviceTablet
	DeviceMobile
)

// deviceMaxBlur maps a DeviceClass to its maximum blur radius in pixels.
var deviceMaxBlur = map[DeviceClass]int{
	DeviceDesktop: 32,
	DeviceTablet:  24,
	DeviceMobile:  12,
}

// deviceGridSides maps a DeviceClass to the side length of the sampling grid
// used for tone analysis. Smaller grids keep analysis cheap on constrained
// devices.
var deviceGridSides = map[DeviceClass]int{
	DeviceDesktop: 8,
	DeviceTablet:  6,
	DeviceMobile:  4,
}

// String returns the string representation of a DeviceClass
func (d DeviceClass) String() string {
	switch d {
	case DeviceDesktop:
		return "desktop"
	case DeviceTablet:
		return "tablet"
	case DeviceMobile:
		return "mobile"
	default:
		return "unknown"
	}
}

// MaxBlurPixels returns the largest blur radius allowed for this class.
func (d DeviceClass) MaxBlurPixels() int {
	if v, ok := deviceMaxBlur[d]; ok {
		return v
	}
	return deviceMaxBlur[DeviceDesktop]
}

// GridSide returns the tone sampling grid side length for this class.
func (d DeviceClass) GridSide() int {
	if v, ok := deviceGridSides[d]; ok {
		return v
	}
	return deviceGridSides[DeviceDesktop]
}

// ParseDeviceClass parses a device class name. Unrecognized names fall back
// to DeviceDesktop.
func ParseDeviceClass(s string) DeviceClass {
	switch s {
	case "tablet":
		return DeviceTablet
	case "mobile":
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// ToneClass is the perceptual brightness classification of a backdrop.
type ToneClass int

// ToneClass constants
const (
	ToneUnknown ToneClass = iota
	ToneDark
	ToneLight
)

// String returns the string representation of a ToneClass
func (t ToneClass) String() string {
	switch t {
	case ToneDark:
		return "dark"
	case ToneLight:
		return "light"
	default:
		return "unknown"
	}
}

// ToneLightThreshold is the mean linear luminance above which a backdrop is
// classified as light. At or below it the backdrop is dark.
const ToneLightThreshold = 0.6

// NetworkTimeouts defines the standard durations for various network operations.
const (
	// HTTPClientRequestTimeout is the total time limit for a single HTTP request,
	// including connection, redirects, and reading the response body.
	HTTPClientRequestTimeout = 60 * time.Second

	// HTTPClientDialerTimeout is the timeout for establishing a TCP connection.
	// This is the most critical timeout for handling network issues after sleep.
	HTTPClientDialerTimeout = 15 * time.Second

	// HTTPClientTLSHandshakeTimeout is the time limit for the TLS handshake for HTTPS.
	HTTPClientTLSHandshakeTimeout = 10 * time.Second

	// HTTPClientResponseHeaderTimeout is the time limit for receiving response headers
	// from the server after the request has been successfully sent.
	HTTPClientResponseHeaderTimeout = 15 * time.Second

	// HTTPClientKeepAlive is the duration for TCP keep-alive probes.
	HTTPClientKeepAlive = 30 * time.Second
)

// MaxImageBytes caps how much of a response body the loader will read when
// fetching a backdrop image.
const MaxImageBytes = 32 << 20
