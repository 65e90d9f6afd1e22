// internal/ua/ua.go
//
// User‑Agent parsing helpers.
//
// This wrapper isolates the third‑party `github.com/avct/uasurfer` API so
// the rest of the codebase never sees its enums or structs.  The access log
// is the only consumer: it records browser family and device class per
// request.
package ua

import (
	"strings"

	surfer "github.com/avct/uasurfer"
)

// Info carries the UA attributes written to the access log.
//
// Device will be one of: "Desktop", "Mobile", "Tablet", "Bot", or "Other".
type Info struct {
	Browser string
	OS      string
	Device  string
	IsBot   bool
}

// Parse converts a raw header into an Info struct.
func Parse(raw string) Info {
	if raw == "" {
		return Info{Device: "Other"}
	}
	u := surfer.Parse(raw)

	info := Info{
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		IsBot:   u.IsBot(),
	}

	switch {
	case info.IsBot:
		info.Device = "Bot"
	case u.DeviceType == surfer.DeviceComputer:
		info.Device = "Desktop"
	case u.DeviceType == surfer.DeviceTablet:
		info.Device = "Tablet"
	case u.DeviceType == surfer.DevicePhone, u.DeviceType == surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}
