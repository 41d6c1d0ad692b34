package validation

import (
	"strings"
	"testing"
	"testing/quick"
)

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "   ", "Company name is required.", v)
	if v["name"] != "Company name is required." {
		t.Fatalf("expected required violation, got %#v", v)
	}
	v = Violations{}
	Required("name", "Acme", "x", v)
	if !v.Empty() {
		t.Fatalf("expected no violation, got %#v", v)
	}
}

func TestFirstRuleWins(t *testing.T) {
	v := Violations{}
	Required("email", "", "required", v)
	Email("email", "", "invalid", v)
	MinLength("email", "", 3, "short", v)
	if v["email"] != "required" {
		t.Fatalf("expected first message to stick, got %q", v["email"])
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"first.last@example.com", true},
		{"no-at-sign.com", false},
		{"a@b", false},
		{"", true}, // optional field
	}
	for _, tt := range tests {
		v := Violations{}
		Email("email", tt.in, "bad", v)
		if got := v.Empty(); got != tt.want {
			t.Errorf("Email(%q) valid=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSixDigitCode(t *testing.T) {
	for in, ok := range map[string]bool{"123456": true, "12345": false, "1234567": false, "12a456": false, "": false} {
		v := Violations{}
		SixDigitCode("otp", in, "bad", v)
		if v.Empty() != ok {
			t.Errorf("SixDigitCode(%q) valid=%v, want %v", in, v.Empty(), ok)
		}
	}
}

func TestOneOfAndLength(t *testing.T) {
	v := Violations{}
	OneOf("type", "retailer", "Company type is required.", []string{"manufacturer", "distributor", "both"}, v)
	LengthBetween("code", "abc", 6, 10, "bad code", v)
	Equal("confirm", "a", "b", "Passwords do not match.", v)
	if len(v) != 3 {
		t.Fatalf("expected 3 violations, got %#v", v)
	}
	if got := v.Fields(); got[0] != "code" || got[2] != "type" {
		t.Fatalf("unexpected field order %v", got)
	}
	if v.First() != "bad code" {
		t.Fatalf("unexpected first message %q", v.First())
	}
}

func TestNonNegativeFloat(t *testing.T) {
	v := Violations{}
	NonNegativeFloat("qty", -1, v)
	NonNegativeFloat("price", 0, v)
	if _, ok := v["qty"]; !ok {
		t.Fatalf("expected qty violation")
	}
	if _, ok := v["price"]; ok {
		t.Fatalf("zero must be accepted")
	}
}

func TestSanitizeOTP(t *testing.T) {
	cases := map[string]string{
		"123456":     "123456",
		"12a3-4 56":  "123456",
		"1234567890": "123456",
		"abc":        "",
		"٣٤٥":        "",
		" 9 8 7 ":    "987",
	}
	for in, want := range cases {
		if got := SanitizeOTP(in); got != want {
			t.Errorf("SanitizeOTP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeOTPProperty(t *testing.T) {
	prop := func(s string) bool {
		got := SanitizeOTP(s)
		if len(got) > 6 {
			return false
		}
		for _, r := range got {
			if r < '0' || r > '9' {
				return false
			}
		}
		// the result is a prefix of the digits of s
		var digits []rune
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits = append(digits, r)
			}
		}
		return strings.HasPrefix(string(digits), got) && (len(got) == 6 || len(got) == len(digits))
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Error(err)
	}
}
