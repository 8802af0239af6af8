package validator

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // valid UUIDv7
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B", // valid UUIDv7 (uppercase)
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // not v7
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // invalid hex
		"",
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	if _, ok := IsValidDate("2025-01-15"); !ok {
		t.Errorf("IsValidDate(2025-01-15) = false, want true")
	}
	for _, s := range []string{"2025-13-01", "15-01-2025", "2025-02-30", ""} {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidClock(t *testing.T) {
	cases := map[string]bool{
		"09:00": true,
		"23:59": true,
		"00:00": true,
		"24:00": false,
		"9:00":  false,
		"09:60": false,
		"":      false,
	}
	for input, want := range cases {
		if got := IsValidClock(input); got != want {
			t.Errorf("IsValidClock(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestIsValidDateTime(t *testing.T) {
	if _, ok := IsValidDateTime("2025-01-15T09:00:00+07:00"); !ok {
		t.Errorf("IsValidDateTime with offset = false, want true")
	}
	if _, ok := IsValidDateTime("2025-01-15 09:00"); ok {
		t.Errorf("IsValidDateTime without zone = true, want false")
	}
}

func TestValidationErrors_MatchesValidationKind(t *testing.T) {
	var err error = ValidationErrors{{Field: "start_date", Message: "start_date is required"}}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ValidationErrors should match apperror.ErrValidation")
	}
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("KindOf(ValidationErrors) = %v, want validation", apperror.KindOf(err))
	}
	if got := err.(ValidationErrors).ToMap()["start_date"]; got != "start_date is required" {
		t.Errorf("ToMap()[start_date] = %q", got)
	}
}
