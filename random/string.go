package random

import (
	"math/rand/v2"
	"strings"
)

const (
	CharsetLetters      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetDigits       = "0123456789"
	CharsetAlphaNumeric = CharsetLetters + CharsetDigits
)

func String(r *rand.Rand, options string, length int) (s string) {
	rOptions := []rune(options)

	var temp = make([]rune, length)
	for index := range temp {
		temp[index] = rOptions[r.IntN(len(rOptions))]
	}
	return string(temp)
}

// Token returns an alphanumeric string that always holds at least one letter,
// so it can never be mistaken for a numeric identifier
func Token(r *rand.Rand, length int) (s string) {
	for {
		s = String(r, CharsetAlphaNumeric, length)
		if strings.ContainsAny(s, CharsetLetters) {
			return s
		}
	}
}
