package mess

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Meal slots: breakfast, lunch, dinner.
const (
	SlotBreakfast = "B"
	SlotLunch     = "L"
	SlotDinner    = "D"
)

const (
	messIDLength     = 8
	messIDAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinKeyLength    = 6
	generateAttempts = 10
)

func ValidSlot(slot string) bool {
	switch slot {
	case SlotBreakfast, SlotLunch, SlotDinner:
		return true
	}
	return false
}

// MealKey builds the composite "YYYY-MM-DD_S" key for one meal slot.
func MealKey(date, slot string) string {
	return date + "_" + slot
}

// ParseMealKey splits a "YYYY-MM-DD_S" key into its calendar components and
// slot. The date part is parsed field by field, so the stored day can never
// shift under a timezone conversion.
func ParseMealKey(key string) (year int, month int, day int, slot string, err error) {
	datePart, slotPart, found := strings.Cut(key, "_")
	if !found {
		return 0, 0, 0, "", fmt.Errorf("%w: %q", ErrInvalidMealKey, key)
	}

	fields := strings.Split(datePart, "-")
	if len(fields) != 3 {
		return 0, 0, 0, "", fmt.Errorf("%w: %q", ErrInvalidMealKey, key)
	}

	year, errY := strconv.Atoi(fields[0])
	month, errM := strconv.Atoi(fields[1])
	day, errD := strconv.Atoi(fields[2])
	if errY != nil || errM != nil || errD != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, "", fmt.Errorf("%w: %q", ErrInvalidMealKey, key)
	}

	if !ValidSlot(slotPart) {
		return 0, 0, 0, "", fmt.Errorf("%w: %q", ErrInvalidMealKey, key)
	}

	return year, month, day, slotPart, nil
}

// ValidMessID reports whether id is an 8-character uppercase alphanumeric token.
func ValidMessID(id string) bool {
	if len(id) != messIDLength {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(messIDAlphabet, r) {
			return false
		}
	}
	return true
}

// ValidJoinKey reports whether key is a 6-digit numeric string.
func ValidJoinKey(key string) bool {
	if len(key) != joinKeyLength {
		return false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// GenerateMessID returns a random 8-character uppercase alphanumeric mess id.
func GenerateMessID() (string, error) {
	max := big.NewInt(int64(len(messIDAlphabet)))

	var builder strings.Builder
	builder.Grow(messIDLength)

	for i := 0; i < messIDLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(messIDAlphabet[n.Int64()])
	}

	return builder.String(), nil
}

// GenerateJoinKey returns a random 6-digit join key ("100000".."999999").
func GenerateJoinKey() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}
