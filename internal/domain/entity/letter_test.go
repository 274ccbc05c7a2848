package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionLetter(t *testing.T) {
	testCases := []struct {
		name     string
		index    int
		expected string
	}{
		{"первый вариант", 0, "A"},
		{"второй вариант", 1, "B"},
		{"четвертый вариант", 3, "D"},
		{"последняя буква алфавита", 25, "Z"},
		{"отрицательный индекс", -1, ""},
		{"индекс за пределами алфавита", 26, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, OptionLetter(tc.index))
		})
	}
}

func TestLetterIndex(t *testing.T) {
	testCases := []struct {
		name     string
		letter   string
		expected int
	}{
		{"буква A", "A", 0},
		{"буква D", "D", 3},
		{"буква Z", "Z", 25},
		{"строчная буква невалидна", "a", -1},
		{"пустая строка", "", -1},
		{"две буквы", "AB", -1},
		{"цифра", "1", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, LetterIndex(tc.letter))
		})
	}
}

func TestLetterIndex_RoundTrip(t *testing.T) {
	// Маппинг должен быть взаимно однозначным на всем алфавите
	for i := 0; i < MaxOptionsPerQuestion; i++ {
		letter := OptionLetter(i)
		assert.Equal(t, i, LetterIndex(letter), "LetterIndex(OptionLetter(%d)) должен вернуть %d", i, i)
	}
}

func TestIsValidLetterFor(t *testing.T) {
	// Вопрос с 4 вариантами принимает только A-D
	assert.True(t, IsValidLetterFor("A", 4))
	assert.True(t, IsValidLetterFor("D", 4))
	assert.False(t, IsValidLetterFor("E", 4), "Буква E вне диапазона для 4 вариантов")
	assert.False(t, IsValidLetterFor("", 4))
	assert.False(t, IsValidLetterFor("a", 4), "Строчные буквы не являются валидными метками")
}

func TestValidateOptionCount(t *testing.T) {
	assert.NoError(t, ValidateOptionCount(4))
	assert.NoError(t, ValidateOptionCount(26))
	assert.Error(t, ValidateOptionCount(27), "Больше 26 вариантов пометить буквами нельзя")
}
