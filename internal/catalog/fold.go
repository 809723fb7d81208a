package catalog

import "strings"

// foldLatin1 maps an accented Latin-1 byte to its ASCII base letter, or 0 if
// the byte is not in the table.
func foldLatin1(c byte) byte {
	switch {
	case c >= 0xC0 && c <= 0xC5, c >= 0xE0 && c <= 0xE5: // ÀÁÂÃÄÅ àáâãäå
		return 'a'
	case c >= 0xC8 && c <= 0xCB, c >= 0xE8 && c <= 0xEB: // ÈÉÊË èéêë
		return 'e'
	case c >= 0xCC && c <= 0xCF, c >= 0xEC && c <= 0xEF: // ÌÍÎÏ ìíîï
		return 'i'
	case c >= 0xD2 && c <= 0xD6, c >= 0xF2 && c <= 0xF6: // ÒÓÔÕÖ òóôõö
		return 'o'
	case c >= 0xD9 && c <= 0xDC, c >= 0xF9 && c <= 0xFC: // ÙÚÛÜ ùúûü
		return 'u'
	case c == 0xC7, c == 0xE7: // Ç ç
		return 'c'
	case c == 0xD1, c == 0xF1: // Ñ ñ
		return 'n'
	case c == 0xDD, c == 0xFD, c == 0xFF: // Ý ý ÿ
		return 'y'
	}
	return 0
}

// foldUTF8 maps the second byte of a 0xC3-prefixed UTF-8 sequence to its
// ASCII base letter, or 0 if the pair is not in the table.
func foldUTF8(next byte) byte {
	switch next {
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, // àáâãäå
		0x80, 0x81, 0x82, 0x83, 0x84, 0x85: // ÀÁÂÃÄÅ
		return 'a'
	case 0xA8, 0xA9, 0xAA, 0xAB, // èéêë
		0x88, 0x89, 0x8A, 0x8B: // ÈÉÊË
		return 'e'
	case 0xAC, 0xAD, 0xAE, 0xAF, // ìíîï
		0x8C, 0x8D, 0x8E, 0x8F: // ÌÍÎÏ
		return 'i'
	case 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, // òóôõö
		0x92, 0x93, 0x94, 0x95, 0x96: // ÒÓÔÕÖ
		return 'o'
	case 0xB9, 0xBA, 0xBB, 0xBC, // ùúûü
		0x99, 0x9A, 0x9B, 0x9C: // ÙÚÛÜ
		return 'u'
	case 0xBD, 0xBF, 0x9D: // ý ÿ Ý
		return 'y'
	case 0xA7, 0x87: // ç Ç
		return 'c'
	case 0xB1, 0x91: // ñ Ñ
		return 'n'
	}
	return 0
}

// Fold normalizes a string for answer comparison: accented characters from
// the Latin-1 range and 0xC3-prefixed UTF-8 pairs collapse to their ASCII
// base letter, then ASCII letters are lowercased. Bytes outside the table
// pass through unchanged.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0xC3 && i+1 < len(s) {
			if folded := foldUTF8(s[i+1]); folded != 0 {
				b.WriteByte(folded)
				i++
				continue
			}
		}
		if folded := foldLatin1(c); folded != 0 {
			b.WriteByte(folded)
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Equals compares two strings ignoring case and accents.
func Equals(a, b string) bool {
	return Fold(a) == Fold(b)
}
