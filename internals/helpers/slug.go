package helper

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// maxSlugSuffixTries: -2 .. -26, setelah itu suffix random.
const maxSlugSuffixTries = 25

// Slugify mengubah teks bebas jadi slug [a-z0-9-], hilangkan diakritik,
// kompres "-", trim ujung, enforce maxLen (default 100 jika <=0), fallback "form".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = strings.ToLower(strings.TrimSpace(s))

	// Strip diakritik (é → e, dll)
	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = reNonAlnum.ReplaceAllString(string(buf), "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	if s == "" {
		s = "form"
	}
	return s
}

// SlugTaken melaporkan apakah slug (case-insensitive) sudah dipakai.
type SlugTaken func(ctx context.Context, slug string) (bool, error)

// UniqueSlug mencoba base, lalu base-2, base-3, ... dan akhirnya base-<hex acak>.
// Keunikan final tetap dijaga unique index; pemanggil retry saat insert bentrok.
func UniqueSlug(ctx context.Context, base string, maxLen int, taken SlugTaken) (string, error) {
	if maxLen <= 0 {
		maxLen = 100
	}
	slug := base
	for i := 0; i < maxSlugSuffixTries; i++ {
		used, err := taken(ctx, strings.ToLower(slug))
		if err != nil {
			return "", err
		}
		if !used {
			return slug, nil
		}
		suffix := fmt.Sprintf("-%d", i+2)
		slug = trimForSuffix(base, suffix, maxLen) + suffix
	}
	return RandomSlugSuffix(base, maxLen), nil
}

// RandomSlugSuffix base-<6 hex>, dipakai juga saat retry insert.
func RandomSlugSuffix(base string, maxLen int) string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	suffix := "-" + hex.EncodeToString(b)
	return trimForSuffix(base, suffix, maxLen) + suffix
}

// trimForSuffix memotong base agar base+suffix <= maxLen, lalu trim '-' di ujung.
func trimForSuffix(base, suffix string, maxLen int) string {
	if maxLen <= 0 {
		return base
	}
	keep := maxLen - len(suffix)
	if keep < 1 {
		return "x"
	}
	rs := []rune(base)
	if len(rs) > keep {
		rs = rs[:keep]
	}
	out := strings.Trim(string(rs), "-")
	if out == "" {
		out = "x"
	}
	return out
}
