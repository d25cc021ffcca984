package binary

import (
	"unicode/utf16"
	"unicode/utf8"
)

// DecodeMUTF8 converts Java modified UTF-8 (JVMS §4.4.7) to a Go string.
//
// The encoded NUL (0xC0 0x80) becomes "\x00" and surrogate pairs become a
// single four-byte UTF-8 sequence. Unpaired surrogates are kept as their
// three-byte form so that EncodeMUTF8 restores the input exactly.
func DecodeMUTF8(b []byte) (string, error) {
	plain := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			plain = false
			break
		}
	}
	if plain {
		return string(b), nil
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", ErrInvalidMUTF8
		case c < 0x80:
			out = append(out, c)
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", ErrInvalidMUTF8
			}
			v := rune(c&0x1F)<<6 | rune(b[i+1]&0x3F)
			switch {
			case v == 0:
				out = append(out, 0)
			case v < 0x80:
				return "", ErrInvalidMUTF8
			default:
				out = append(out, c, b[i+1])
			}
			i += 2
		case c&0xF0 == 0xE0:
			v, ok := decode3(b, i)
			if !ok {
				return "", ErrInvalidMUTF8
			}
			if v >= 0xD800 && v < 0xDC00 {
				if lo, ok := decode3(b, i+3); ok && lo >= 0xDC00 && lo < 0xE000 {
					out = utf8.AppendRune(out, utf16.DecodeRune(v, lo))
					i += 6
					continue
				}
			}
			out = append(out, b[i], b[i+1], b[i+2])
			i += 3
		default:
			return "", ErrInvalidMUTF8
		}
	}
	return string(out), nil
}

func decode3(b []byte, i int) (rune, bool) {
	if i+2 >= len(b) || b[i]&0xF0 != 0xE0 || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
		return 0, false
	}
	v := rune(b[i]&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
	if v < 0x800 {
		return 0, false
	}
	return v, true
}

// EncodeMUTF8 converts a Go string to Java modified UTF-8. It is the inverse
// of DecodeMUTF8.
func EncodeMUTF8(s string) []byte {
	plain := true
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == 0 || c >= 0xF0 {
			plain = false
			break
		}
	}
	if plain {
		return []byte(s)
	}

	out := make([]byte, 0, len(s)+8)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == 0:
			out = append(out, 0xC0, 0x80)
			i++
		case c >= 0xF0:
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size <= 1 {
				out = append(out, c)
				i++
				continue
			}
			hi, lo := utf16.EncodeRune(r)
			out = append3(out, hi)
			out = append3(out, lo)
			i += size
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

// MUTF8Len returns len(EncodeMUTF8(s)) without building the encoding.
func MUTF8Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == 0:
			n += 2
			i++
		case c >= 0xF0:
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size <= 1 {
				n++
				i++
				continue
			}
			n += 6
			i += size
		default:
			n++
			i++
		}
	}
	return n
}

func append3(out []byte, r rune) []byte {
	return append(out,
		0xE0|byte(r>>12),
		0x80|byte(r>>6)&0x3F,
		0x80|byte(r)&0x3F)
}
