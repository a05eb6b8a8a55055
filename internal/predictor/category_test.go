package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shadex-ai/internal/database"
)

func TestClassify(t *testing.T) {
	cases := map[string]database.Category{
		"":              database.CategoryUnknown,
		"   ":           database.CategoryUnknown,
		"n/a":           database.CategoryUnknown,
		"7":             database.CategoryBig,
		"5":             database.CategoryBig,
		"4":             database.CategorySmall,
		"0":             database.CategorySmall,
		"12":            database.CategoryBig,
		"-3":            database.CategorySmall,
		"BIG":           database.CategoryBig,
		"Small 9":       database.CategorySmall,
		"big or small":  database.CategorySmall,
		"result: 6 red": database.CategoryBig,
	}

	for input, expected := range cases {
		assert.Equal(t, expected, Classify(input), "input %q", input)
	}
}

func TestFirstInt(t *testing.T) {
	n, ok := FirstInt("issue -42 then 7")
	assert.True(t, ok)
	assert.Equal(t, int64(-42), n)

	_, ok = FirstInt("none")
	assert.False(t, ok)

	n, ok = FirstInt("99999999999999999999999")
	assert.True(t, ok)
	assert.Equal(t, CategoryOf(n), database.CategoryBig)
}
