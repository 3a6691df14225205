package controller

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/constants"
	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/features/forms/responses/service"
	helper "triddle_backend/internals/helpers"
)

// Header geolokasi dari edge (Cloudflare / reverse proxy).
const (
	headerCountry = "CF-IPCountry"
	headerCity    = "X-Geo-City"
	headerLat     = "X-Geo-Lat"
	headerLng     = "X-Geo-Lng"
)

// Kode negara khusus Cloudflare: XX = tidak diketahui, T1 = Tor.
var ignoredCountries = map[string]struct{}{"XX": {}, "T1": {}}

// requestMetadata merangkum IP, user agent, referrer, device & geolokasi.
// Header edge menang atas body per field.
func requestMetadata(c *fiber.Ctx, bodyGeo *model.Geolocation) model.ResponseMetadata {
	ua := strings.TrimSpace(c.Get(fiber.HeaderUserAgent))
	meta := model.ResponseMetadata{
		IP:        c.IP(),
		UserAgent: ua,
		Referrer:  strings.TrimSpace(c.Get(fiber.HeaderReferer)),
		Device:    helper.ClassifyDevice(ua),
	}

	geo := model.Geolocation{}
	if bodyGeo != nil {
		geo = *bodyGeo
		geo.Country = strings.ToUpper(strings.TrimSpace(geo.Country))
	}
	if v := strings.ToUpper(strings.TrimSpace(c.Get(headerCountry))); v != "" {
		if _, skip := ignoredCountries[v]; !skip {
			geo.Country = v
		}
	}
	if v := strings.TrimSpace(c.Get(headerCity)); v != "" {
		geo.City = v
	}
	if v, ok := parseCoord(c.Get(headerLat), 90); ok {
		geo.Latitude = &v
	}
	if v, ok := parseCoord(c.Get(headerLng), 180); ok {
		geo.Longitude = &v
	}
	if geo.Country != "" || geo.City != "" || geo.Latitude != nil || geo.Longitude != nil {
		meta.Geolocation = &geo
	}
	return meta
}

func parseCoord(raw string, limit float64) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

/* ==========================
   Multipart upload
========================== */

// uploadFiles ubah part multipart "files" jadi service.UploadFile.
// Content-Type dari header part; kalau kosong/generik ditebak dari isi file.
func uploadFiles(form *multipart.Form) ([]service.UploadFile, error) {
	parts := form.File["files"]
	if len(parts) == 0 {
		parts = form.File["file"]
	}
	if len(parts) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "multipart field 'files' is required")
	}
	if len(parts) > constants.MaxFilesPerQuestion {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("at most %d files per request", constants.MaxFilesPerQuestion))
	}

	out := make([]service.UploadFile, 0, len(parts))
	for _, fh := range parts {
		ct, err := declaredType(fh)
		if err != nil {
			return nil, err
		}
		fh := fh
		out = append(out, service.UploadFile{
			Name:     fh.Filename,
			Size:     fh.Size,
			MimeType: ct,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out, nil
}

func declaredType(fh *multipart.FileHeader) (string, error) {
	ct := strings.TrimSpace(fh.Header.Get(fiber.HeaderContentType))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if _, generic := constants.GenericContentTypes[strings.ToLower(ct)]; !generic {
		return ct, nil
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("sniff upload %q: %w", fh.Filename, err)
	}
	mt, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return detected.String(), nil
	}
	return mt, nil
}
