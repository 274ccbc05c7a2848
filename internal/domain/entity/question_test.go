package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_IsCorrect(t *testing.T) {
	// Arrange
	question := &Question{
		ID:            1,
		TestID:        1,
		Text:          "Which value of x satisfies 2x + 6 = 14?",
		Options:       StringArray{"2", "4", "6", "8"},
		CorrectAnswer: "B",
		Points:        1,
	}

	// Act & Assert
	assert.True(t, question.IsCorrect("B"), "IsCorrect должен вернуть true для правильной буквы")
	assert.False(t, question.IsCorrect("A"), "IsCorrect должен вернуть false для неправильной буквы")
	assert.False(t, question.IsCorrect("b"), "Сравнение чувствительно к регистру")
	assert.False(t, question.IsCorrect(""), "Пустой ответ никогда не правильный")
}

func TestQuestion_OptionText(t *testing.T) {
	// Arrange
	question := &Question{
		Options: StringArray{"Paris", "London", "Berlin"},
	}

	// Act & Assert: валидные метки
	text, ok := question.OptionText("A")
	require.True(t, ok)
	assert.Equal(t, "Paris", text)

	text, ok = question.OptionText("C")
	require.True(t, ok)
	assert.Equal(t, "Berlin", text)

	// Assert: метка за пределами списка вариантов деградирует, а не паникует
	_, ok = question.OptionText("D")
	assert.False(t, ok, "Метка D не адресует вариант при 3 опциях")
	_, ok = question.OptionText("")
	assert.False(t, ok)
}

func TestQuestion_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{
			name:    "валидный вопрос",
			q:       Question{ID: 1, Options: StringArray{"a", "b", "c", "d"}, CorrectAnswer: "C", Points: 2},
			wantErr: false,
		},
		{
			name:    "correct answer вне диапазона вариантов",
			q:       Question{ID: 2, Options: StringArray{"a", "b"}, CorrectAnswer: "C", Points: 1},
			wantErr: true,
		},
		{
			name:    "один вариант",
			q:       Question{ID: 3, Options: StringArray{"a"}, CorrectAnswer: "A", Points: 1},
			wantErr: true,
		},
		{
			name:    "нулевые очки",
			q:       Question{ID: 4, Options: StringArray{"a", "b"}, CorrectAnswer: "A", Points: 0},
			wantErr: true,
		},
		{
			name:    "строчная буква правильного ответа",
			q:       Question{ID: 5, Options: StringArray{"a", "b"}, CorrectAnswer: "a", Points: 1},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuestion_TableName(t *testing.T) {
	question := Question{}
	assert.Equal(t, "questions", question.TableName(), "TableName должен возвращать 'questions'")
}

// Тесты для StringArray (JSONB сериализация)

func TestStringArray_Scan_ValidJSON(t *testing.T) {
	// Arrange
	jsonBytes := []byte(`["Option 1", "Option 2", "Option 3"]`)
	var arr StringArray

	// Act
	err := arr.Scan(jsonBytes)

	// Assert
	require.NoError(t, err, "Scan не должен возвращать ошибку для валидного JSON")
	assert.Len(t, arr, 3)
	assert.Equal(t, "Option 1", arr[0])
}

func TestStringArray_Scan_NullValue(t *testing.T) {
	var arr StringArray

	err := arr.Scan(nil)

	require.NoError(t, err, "Scan не должен возвращать ошибку для nil")
	assert.Len(t, arr, 0, "Для nil должен вернуться пустой массив")
}

func TestStringArray_Value_Empty(t *testing.T) {
	arr := StringArray{}

	val, err := arr.Value()

	require.NoError(t, err)
	bytes, ok := val.([]byte)
	require.True(t, ok, "Value должен возвращать []byte")
	assert.Equal(t, "[]", string(bytes), "Пустой массив должен сериализоваться в []")
}
