package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustUintToInt(t *testing.T) {
	t.Parallel()

	t.Run("normal_value", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 42, MustUintToInt(42))
	})

	t.Run("max_int", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, MaxInt, MustUintToInt(uint(MaxInt)))
	})

	t.Run("overflow_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: uint to int overflow", func() {
			MustUintToInt(uint(MaxInt) + 1)
		})
	})
}

func TestMustIntToUint(t *testing.T) {
	t.Parallel()

	t.Run("normal_value", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint(42), MustIntToUint(42))
	})

	t.Run("zero", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint(0), MustIntToUint(0))
	})

	t.Run("negative_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: negative int to uint conversion", func() {
			MustIntToUint(-1)
		})
	})
}

func TestClampUintToUint32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    uint
		expected uint32
	}{
		{name: "zero", input: 0, expected: 0},
		{name: "normal_value", input: 7, expected: 7},
		{name: "max", input: math.MaxUint32, expected: math.MaxUint32},
		{name: "clamped", input: uint(math.MaxUint32) + 1, expected: math.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ClampUintToUint32(tt.input))
		})
	}
}
