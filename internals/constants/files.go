package constants

const (
	// Batas upload kalau pertanyaan file_upload tidak menentukan max_size.
	DefaultMaxUploadBytes int64 = 10 * 1024 * 1024
	// Batas body multipart di level server.
	MaxMultipartBodyBytes = 64 * 1024 * 1024

	MaxFilesPerQuestion = 10

	// Batas gambar cover/logo form sebelum di-encode ke WebP.
	MaxFormImageBytes int64 = 5 * 1024 * 1024
)

// Generic content types yang dianggap "tidak dideklarasikan"; diganti hasil sniffing.
var GenericContentTypes = map[string]struct{}{
	"":                         {},
	"application/octet-stream": {},
	"binary/octet-stream":      {},
}
