package utils

import (
	"strconv"
	"unicode/utf16"
)

// StringHash is the 32-bit rolling hash h = h*31 + c over UTF-16 code
// units with two's-complement wrap, returned as |h|. Deterministic across
// processes, used for template windows and cache keys.
func StringHash(s string) int64 {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(cu)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// StringHashBase36 renders StringHash in base 36
func StringHashBase36(s string) string {
	return strconv.FormatInt(StringHash(s), 36)
}
