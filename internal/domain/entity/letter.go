package entity

import "fmt"

// MaxOptionsPerQuestion — максимальное количество вариантов ответа.
// Варианты помечаются буквами A..Z, поэтому больше 26 быть не может.
const MaxOptionsPerQuestion = 26

// OptionLetter возвращает буквенную метку для варианта по его индексу:
// 0 -> "A", 1 -> "B" и т.д. Для индекса вне диапазона возвращает пустую строку.
func OptionLetter(index int) string {
	if index < 0 || index >= MaxOptionsPerQuestion {
		return ""
	}
	return string(rune('A' + index))
}

// LetterIndex возвращает индекс варианта по буквенной метке: "A" -> 0, "B" -> 1.
// Для невалидной метки (не одна заглавная латинская буква) возвращает -1.
func LetterIndex(letter string) int {
	if len(letter) != 1 {
		return -1
	}
	c := letter[0]
	if c < 'A' || c > 'Z' {
		return -1
	}
	return int(c - 'A')
}

// IsValidLetterFor проверяет, что метка адресует один из optionCount вариантов
func IsValidLetterFor(letter string, optionCount int) bool {
	idx := LetterIndex(letter)
	return idx >= 0 && idx < optionCount
}

// ValidateOptionCount проверяет, что список вариантов можно пометить буквами
func ValidateOptionCount(count int) error {
	if count > MaxOptionsPerQuestion {
		return fmt.Errorf("too many options: %d (letter labels support at most %d)", count, MaxOptionsPerQuestion)
	}
	return nil
}
