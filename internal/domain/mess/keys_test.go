package mess

import (
	"errors"
	"testing"
)

func TestParseMealKey(t *testing.T) {
	year, month, day, slot, err := ParseMealKey("2025-11-01_B")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if year != 2025 || month != 11 || day != 1 || slot != SlotBreakfast {
		t.Fatalf("unexpected parse result: %d-%d-%d %s", year, month, day, slot)
	}
}

func TestParseMealKeyRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"2025-11-01",
		"2025-11-01_X",
		"2025-11_B",
		"2025-13-01_L",
		"2025-00-01_L",
		"2025-11-32_D",
		"year-mm-dd_B",
	}
	for _, key := range bad {
		if _, _, _, _, err := ParseMealKey(key); !errors.Is(err, ErrInvalidMealKey) {
			t.Fatalf("key %q: expected ErrInvalidMealKey, got %v", key, err)
		}
	}
}

func TestMealKeyRoundTrip(t *testing.T) {
	key := MealKey("2025-11-01", SlotDinner)
	if key != "2025-11-01_D" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestGenerateMessID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := GenerateMessID()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ValidMessID(id) {
			t.Fatalf("generated invalid mess id %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Fatalf("generator looks constant")
	}
}

func TestGenerateJoinKey(t *testing.T) {
	for i := 0; i < 50; i++ {
		key, err := GenerateJoinKey()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ValidJoinKey(key) {
			t.Fatalf("generated invalid join key %q", key)
		}
	}
}

func TestValidMessID(t *testing.T) {
	cases := map[string]bool{
		"AB12CD34":  true,
		"ZZZZZZZZ":  true,
		"ab12cd34":  false,
		"AB12CD3":   false,
		"AB12CD345": false,
		"AB12CD3!":  false,
	}
	for id, want := range cases {
		if got := ValidMessID(id); got != want {
			t.Fatalf("ValidMessID(%q) = %v, want %v", id, got, want)
		}
	}
}
