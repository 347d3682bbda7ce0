package api

import (
	"net/http"

	"github.com/mileusna/useragent"
)

// ClientInfo describes the software behind a request.
type ClientInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

// parseClient extracts browser, OS and device type from the User-Agent header.
func parseClient(r *http.Request) ClientInfo {
	ua := useragent.Parse(r.UserAgent())

	info := ClientInfo{
		Browser: ua.Name,
		OS:      ua.OS,
	}
	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		info.DeviceType = "mobile"
	case ua.Tablet:
		info.DeviceType = "tablet"
	case ua.Bot:
		info.DeviceType = "bot"
	default:
		info.DeviceType = "desktop"
	}
	return info
}
