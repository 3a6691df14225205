// internals/helpers/oss/oss_client.go
package helper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

func getEnv(k string) string { return strings.TrimSpace(os.Getenv(k)) }

// OSS membatasi DeleteObjects 1000 key per request.
const maxDeleteChunk = 1000

const cacheForever = "public, max-age=31536000, immutable"

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string // optional: "triddle"
	PublicBase string // ALI_OSS_PUBLIC_BASE (CDN), optional
}

// NewOSSServiceFromEnv membaca ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET
// (+ SECURITY_TOKEN, PUBLIC_BASE opsional).
func NewOSSServiceFromEnv(prefix string) (*OSSService, error) {
	endpoint := getEnv("ALI_OSS_ENDPOINT")
	ak := getEnv("ALI_OSS_ACCESS_KEY")
	sk := getEnv("ALI_OSS_SECRET_KEY")
	sts := getEnv("ALI_OSS_SECURITY_TOKEN")
	bucketName := getEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var opts []oss.ClientOption
	if sts != "" {
		opts = append(opts, oss.SecurityToken(sts))
	}
	client, err := oss.New(endpoint, ak, sk, opts...)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	// Verifikasi ringan lokasi bucket
	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 {
			log.Printf("[OSS] warn: skip location check (bucket=%s): %s", bucketName, se.Code)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", bucketName, loc)
	}

	return &OSSService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
		PublicBase: strings.TrimRight(getEnv("ALI_OSS_PUBLIC_BASE"), "/"),
	}, nil
}

/* =======================================================================
   Upload & Delete
======================================================================= */

// Put upload stream apa adanya ke key (prefix service ditambahkan otomatis).
// Mengembalikan URL publik object.
func (s *OSSService) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key = s.fullKey(key)
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.CacheControl(cacheForever),
	}
	if strings.HasPrefix(contentType, "image/") {
		opts = append(opts, oss.ContentDisposition("inline"))
	} else {
		opts = append(opts, oss.ContentDisposition("attachment"))
	}
	if err := s.Bucket.PutObject(key, body, opts...); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

// PutWebP re-encode gambar ke WebP lalu upload ke "<dir>/<name>.webp".
// Mengembalikan (publicURL, objectKey).
func (s *OSSService) PutWebP(ctx context.Context, dir, name string, src io.Reader, opt WebPOptions) (string, string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", "", fmt.Errorf("read image: %w", err)
	}
	webpData, err := ConvertToWebP(data, name, opt)
	if err != nil {
		return "", "", err
	}
	key := strings.Trim(dir, "/") + "/" + name + ".webp"
	url, err := s.Put(ctx, key, bytes.NewReader(webpData), "image/webp")
	if err != nil {
		return "", "", err
	}
	return url, s.fullKey(key), nil
}

// Delete menghapus banyak key sekaligus (chunk 1000). Key yang sudah tidak ada diabaikan OSS.
func (s *OSSService) Delete(ctx context.Context, keys []string) error {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = s.fullKey(k); k != "" {
			clean = append(clean, k)
		}
	}
	for start := 0; start < len(clean); start += maxDeleteChunk {
		end := start + maxDeleteChunk
		if end > len(clean) {
			end = len(clean)
		}
		if _, err := s.Bucket.DeleteObjects(clean[start:end], oss.WithContext(ctx), oss.DeleteObjectsQuiet(true)); err != nil {
			return fmt.Errorf("delete objects %d-%d: %w", start, end, err)
		}
	}
	return nil
}

/* =======================================================================
   Public URL & Key utils
======================================================================= */

func (s *OSSService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

// KeyFromPublicURL kebalikan PublicURL.
func (s *OSSService) KeyFromPublicURL(publicURL string) (string, error) {
	if publicURL == "" {
		return "", fmt.Errorf("empty url")
	}
	if s.PublicBase != "" && strings.HasPrefix(publicURL, s.PublicBase+"/") {
		return strings.TrimPrefix(publicURL, s.PublicBase+"/"), nil
	}
	u := publicURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 && i+1 < len(u) {
		return u[i+1:], nil
	}
	return "", fmt.Errorf("cannot extract key from url: %s", publicURL)
}

// fullKey menambahkan prefix service kalau belum ada.
func (s *OSSService) fullKey(key string) string {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" || s.Prefix == "" || strings.HasPrefix(key, s.Prefix+"/") {
		return key
	}
	return s.Prefix + "/" + key
}

func init() {
	_ = mime.AddExtensionType(".webp", "image/webp")
	_ = mime.AddExtensionType(".avif", "image/avif")
	_ = mime.AddExtensionType(".heic", "image/heic")
}
