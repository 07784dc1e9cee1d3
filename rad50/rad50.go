// Package rad50 packs and unpacks six-character ACNET symbols into 32-bit
// integers, using the base-40 DEC RAD50 alphabet.
package rad50

import "strings"

// alphabet maps index to character. Index 0 is space; out-of-alphabet
// characters encode to space.
const alphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ$.%0123456789"

// index returns the alphabet position of c, folding lowercase letters to
// uppercase, or 0 (space) when c is not in the alphabet.
func index(c byte) uint {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	i := strings.IndexByte(alphabet, c)
	if i < 0 {
		return 0
	}
	return uint(i)
}

// Encode packs the first six characters of s into a RAD50 value. Shorter
// strings are padded with spaces; characters outside the alphabet become
// space.
func Encode(s string) uint32 {
	var c [6]byte
	copy(c[:], s)
	for i := len(s); i < 6; i++ {
		c[i] = ' '
	}

	v1 := index(c[0])*1600 + index(c[1])*40 + index(c[2])
	v2 := index(c[3])*1600 + index(c[4])*40 + index(c[5])
	return uint32(v2)<<16 | uint32(v1)
}

// Decode unpacks a RAD50 value into its six-character string, with
// trailing spaces stripped.
func Decode(r uint32) string {
	v1 := uint(r & 0xffff)
	v2 := uint(r >> 16)

	var b [6]byte
	b[0] = alphabet[v1/1600%40]
	b[1] = alphabet[v1/40%40]
	b[2] = alphabet[v1%40]
	b[3] = alphabet[v2/1600%40]
	b[4] = alphabet[v2/40%40]
	b[5] = alphabet[v2%40]

	return strings.TrimRight(string(b[:]), " ")
}
