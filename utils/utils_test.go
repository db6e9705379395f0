package utils

import "testing"

func TestGenerateRandomString(t *testing.T) {
	a := GenerateRandomString(10)
	b := GenerateRandomString(10)
	if len(a) != 10 || len(b) != 10 {
		t.Fatalf("wrong length: %q %q", a, b)
	}
	if a == b {
		t.Fatalf("two random strings matched: %q", a)
	}
}

func TestEncrypIt(t *testing.T) {
	a := EncrypIt("hello")
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars, got %d: %q", len(a), a)
	}
	if a != EncrypIt("hello") {
		t.Fatal("hash not deterministic")
	}
	if a == EncrypIt("hello ") {
		t.Fatal("distinct inputs collided")
	}
}

func TestFormatMoneyDefaults(t *testing.T) {
	t.Setenv("CURRENCY_MINOR_UNIT", "")

	cases := map[float64]string{
		0:     "0.00",
		12.3:  "12.30",
		12.34: "12.34",
		100:   "100.00",
	}
	for amount, want := range cases {
		if got := FormatMoney(amount); got != want {
			t.Fatalf("FormatMoney(%g) = %q, want %q", amount, got, want)
		}
	}
}

func TestFormatMoneyMinorUnit(t *testing.T) {
	t.Setenv("CURRENCY_MINOR_UNIT", "0")
	if got := FormatMoney(1234); got != "1234" {
		t.Fatalf("zero-decimal currency: got %q", got)
	}

	t.Setenv("CURRENCY_MINOR_UNIT", "3")
	if got := FormatMoney(1.5); got != "1.500" {
		t.Fatalf("three-decimal currency: got %q", got)
	}
}

func TestCurrencyCode(t *testing.T) {
	t.Setenv("CURRENCY", "")
	if got := CurrencyCode(); got != "USD" {
		t.Fatalf("default currency: got %q", got)
	}
	t.Setenv("CURRENCY", "EUR")
	if got := CurrencyCode(); got != "EUR" {
		t.Fatalf("configured currency: got %q", got)
	}
}
