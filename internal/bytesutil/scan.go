// Package bytesutil holds small byte-slice helpers used by the RESP decoder.
package bytesutil

// Match reports whether needle occurs in haystack starting exactly at index
// at. With wrap set, haystack is treated as a ring and the comparison may run
// past its end and continue at index 0.
func Match(haystack, needle []byte, at int, wrap bool) bool {
	if len(haystack) == 0 || at < 0 {
		return false
	}
	i := at
	for j := 0; j < len(needle); j++ {
		if i >= len(haystack) {
			if !wrap {
				return false
			}
			i %= len(haystack)
		}
		if haystack[i] != needle[j] {
			return false
		}
		i++
	}
	return true
}

// IndexOf returns the index of the first occurrence of needle in haystack at
// or after start, or -1 if there is none.
//
// When wrap is true and nothing matches between start and the end of
// haystack, the search continues from index 0 back up to start, treating
// haystack as a circular buffer. A needle longer than haystack never matches.
func IndexOf(haystack, needle []byte, start int, wrap bool) int {
	n := len(haystack)
	if n == 0 || len(needle) > n {
		return -1
	}
	if start < 0 {
		start = 0
	}
	start %= n

	i := start
	for {
		if Match(haystack, needle, i, wrap) {
			return i
		}
		i++
		if i == n {
			if !wrap {
				return -1
			}
			i = 0
		}
		if i == start {
			return -1
		}
	}
}
