// internals/helpers/oss/image_webp.go
package helper

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"strconv"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

// ErrUnsupportedImage: format bukan jpeg/png/gif/webp.
var ErrUnsupportedImage = errors.New("unsupported image format (use jpg/png/gif/webp)")

/* =======================================================================
   Konfigurasi WebP (ENV-Driven)
======================================================================= */

type WebPOptions struct {
	MaxW        int     // batas lebar (resize keep-aspect)
	MaxH        int     // batas tinggi
	TargetKB    int     // 0 = non-aktif (pakai Quality saja)
	Quality     float32 // quality saat TargetKB=0
	MinQ        float32 // batas bawah binary search
	MaxQ        float32 // batas atas binary search
	ToleranceKB int
	MinW        int     // lebar minimum saat iterative downscale
	MinH        int
	ScaleStep   float32 // 0<step<1
}

func envInt(key string, def int) int {
	if v := getEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envFloat(key string, def float32) float32 {
	if v := getEnv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 {
			return float32(f)
		}
	}
	return def
}

// DefaultWebPOptions untuk cover/logo form.
func DefaultWebPOptions() WebPOptions {
	return WebPOptions{
		MaxW:        envInt("IMAGE_WEBP_MAX_W", 1600),
		MaxH:        envInt("IMAGE_WEBP_MAX_H", 1600),
		TargetKB:    envInt("IMAGE_WEBP_TARGET_KB", 0),
		Quality:     envFloat("IMAGE_WEBP_QUALITY", 80),
		MinQ:        envFloat("IMAGE_WEBP_MIN_Q", 45),
		MaxQ:        envFloat("IMAGE_WEBP_MAX_Q", 85),
		ToleranceKB: envInt("IMAGE_WEBP_TOLERANCE_KB", 8),
		MinW:        envInt("IMAGE_WEBP_MIN_W", 320),
		MinH:        envInt("IMAGE_WEBP_MIN_H", 320),
		ScaleStep:   envFloat("IMAGE_WEBP_SCALE_STEP", 0.85),
	}
}

/* =======================================================================
   Decode -> resize -> encode
======================================================================= */

// ConvertToWebP: decode (sniff MIME dari isi file) -> Fit ke MaxW x MaxH -> encode WebP.
func ConvertToWebP(data []byte, filename string, opt WebPOptions) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	img = fitWithin(img, opt.MaxW, opt.MaxH)
	return encodeToWebP(img, opt)
}

func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	r := bytes.NewReader(data)
	switch mimetype.Detect(data).String() {
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/png":
		return png.Decode(r)
	case "image/gif":
		return gif.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	}
	return nil, ErrUnsupportedImage
}

// fitWithin memperkecil (tidak pernah memperbesar) dengan menjaga aspek.
func fitWithin(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	if (maxW <= 0 || b.Dx() <= maxW) && (maxH <= 0 || b.Dy() <= maxH) {
		return src
	}
	if maxW <= 0 {
		maxW = b.Dx()
	}
	if maxH <= 0 {
		maxH = b.Dy()
	}
	return imaging.Fit(src, maxW, maxH, imaging.Lanczos)
}

func encodeQ(img image.Image, q float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeToWebP:
//   - TargetKB = 0 -> encode sekali dengan Quality
//   - TargetKB > 0 -> binary search quality; kalau masih kebesaran, perkecil dimensi lalu ulang
func encodeToWebP(img image.Image, opt WebPOptions) ([]byte, error) {
	if opt.TargetKB <= 0 {
		q := opt.Quality
		if q <= 0 {
			q = 80
		}
		return encodeQ(img, q)
	}

	limit := (opt.TargetKB + max(opt.ToleranceKB, 0)) * 1024
	minQ, maxQ := opt.MinQ, opt.MaxQ
	if minQ <= 0 {
		minQ = 45
	}
	if maxQ <= 0 {
		maxQ = 85
	}
	if minQ > maxQ {
		minQ, maxQ = maxQ, minQ
	}
	step := opt.ScaleStep
	if step <= 0 || step >= 1 {
		step = 0.85
	}

	cur := img
	var last []byte
	for attempt := 0; attempt < 6; attempt++ {
		low, high := minQ, maxQ
		var best []byte
		for i := 0; i < 7; i++ {
			q := (low + high) / 2
			data, err := encodeQ(cur, q)
			if err != nil {
				return nil, err
			}
			if len(data) <= limit {
				best, low = data, q // muat -> coba quality lebih tinggi
			} else {
				high = q
			}
		}
		if best == nil {
			data, err := encodeQ(cur, minQ)
			if err != nil {
				return nil, err
			}
			best = data
		}
		last = best
		if len(best) <= limit {
			return best, nil
		}

		// masih kebesaran -> perkecil dimensi
		b := cur.Bounds()
		if b.Dx() <= opt.MinW && b.Dy() <= opt.MinH {
			return best, nil
		}
		scale := math.Min(float64(step), math.Max(0.5, math.Sqrt(float64(limit)/float64(len(best)))*0.95))
		nw := max(int(math.Round(float64(b.Dx())*scale)), opt.MinW, 1)
		nh := max(int(math.Round(float64(b.Dy())*scale)), opt.MinH, 1)
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), cur, b, draw.Over, nil)
		cur = dst
	}
	return last, nil
}
