package crawler

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// duplicateThreshold is the maximum Hamming distance at which two pages'
// visible text is considered the same content at different URLs (print
// views, tracking-parameter aliases, locale mirrors).
const duplicateThreshold = 3

// textFingerprint computes a 64-bit SimHash over word tokens of a page's
// visible text. FNV-64a per token, accumulated into a signed bit vector.
func textFingerprint(text string) uint64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(strings.ToLower(word)))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// isNearDuplicate reports whether fp is within duplicateThreshold of any
// already-seen fingerprint. Zero fingerprints (empty text) never match, so
// image-only pages are not misflagged as duplicates of each other.
func isNearDuplicate(fp uint64, seen []uint64) bool {
	if fp == 0 {
		return false
	}
	for _, prev := range seen {
		if bits.OnesCount64(fp^prev) <= duplicateThreshold {
			return true
		}
	}
	return false
}
