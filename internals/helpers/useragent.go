package helper

import (
	"strings"

	"github.com/mssola/useragent"

	"triddle_backend/internals/features/forms/responses/model"
)

// ClassifyDevice: User-Agent -> (mobile|tablet|desktop|unknown, os, browser).
func ClassifyDevice(ua string) model.DeviceInfo {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return model.DeviceInfo{Type: model.DeviceUnknown}
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	info := model.DeviceInfo{OS: parsed.OS(), Browser: browser}

	lower := strings.ToLower(ua)
	switch {
	case parsed.Bot():
		info.Type = model.DeviceUnknown
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet") ||
		(strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")):
		info.Type = model.DeviceTablet
	case parsed.Mobile():
		info.Type = model.DeviceMobile
	case parsed.OS() != "":
		info.Type = model.DeviceDesktop
	default:
		info.Type = model.DeviceUnknown
	}
	return info
}
