package utils

import (
	"crypto/md5"
	"fmt"
	rndm "math/rand"
	"os"
	"strconv"
)

// --- Random String and ID Generators ---

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789_ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateRandomString creates a random alphanumeric string of length n.
func GenerateRandomString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rndm.Intn(len(letterRunes))]
	}
	return string(b)
}

// --- Hashing ---

func EncrypIt(strToHash string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(strToHash)))
}

// --- Money ---

// CurrencyCode is the display currency for all formatted amounts.
func CurrencyCode() string {
	if c := os.Getenv("CURRENCY"); c != "" {
		return c
	}
	return "USD"
}

func currencyMinorUnit() int {
	if m := os.Getenv("CURRENCY_MINOR_UNIT"); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 0 && n <= 4 {
			return n
		}
	}
	return 2
}

// FormatMoney is the one canonical money formatter. Every monetary value in
// a response passes through here so precision stays consistent.
func FormatMoney(amount float64) string {
	return strconv.FormatFloat(amount, 'f', currencyMinorUnit(), 64)
}
