package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTest() *Test {
	return &Test{
		ID:           1,
		Title:        "Algebra Practice",
		PassingScore: 70,
		Questions: []Question{
			{ID: 1, Options: StringArray{"1", "2", "3", "4"}, CorrectAnswer: "A", Points: 1, OrderIndex: 0},
			{ID: 2, Options: StringArray{"1", "2", "3", "4"}, CorrectAnswer: "B", Points: 1, OrderIndex: 1},
		},
	}
}

func TestTest_ValidateForTaking_Success(t *testing.T) {
	assert.NoError(t, validTest().ValidateForTaking())
}

func TestTest_ValidateForTaking_NoQuestions(t *testing.T) {
	// Тест без вопросов должен быть отвергнут ДО старта сессии,
	// иначе подсчет процентов делил бы на ноль
	test := validTest()
	test.Questions = nil

	err := test.ValidateForTaking()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no questions")
}

func TestTest_ValidateForTaking_BadCorrectAnswer(t *testing.T) {
	test := validTest()
	test.Questions[1].CorrectAnswer = "E" // Всего 4 варианта

	err := test.ValidateForTaking()

	assert.Error(t, err, "Вопрос с некорректной меткой правильного ответа блокирует тест")
}

func TestTest_ValidateForTaking_PassingScoreOutOfRange(t *testing.T) {
	test := validTest()
	test.PassingScore = 120

	assert.Error(t, test.ValidateForTaking())
}

func TestTest_TotalPoints(t *testing.T) {
	test := validTest()
	test.Questions[0].Points = 1
	test.Questions[1].Points = 3

	assert.Equal(t, 4, test.TotalPoints())
}

func TestTest_OrderedQuestions(t *testing.T) {
	// Arrange: вопросы с непоследовательными OrderIndex в произвольном порядке
	test := &Test{
		Questions: []Question{
			{ID: 3, OrderIndex: 30},
			{ID: 1, OrderIndex: 5},
			{ID: 2, OrderIndex: 10},
		},
	}

	// Act
	ordered := test.OrderedQuestions()

	// Assert: порядок по OrderIndex, исходный слайс не изменен
	assert.Equal(t, uint(1), ordered[0].ID)
	assert.Equal(t, uint(2), ordered[1].ID)
	assert.Equal(t, uint(3), ordered[2].ID)
	assert.Equal(t, uint(3), test.Questions[0].ID, "Исходный порядок не должен меняться")
}

func TestTest_Limits(t *testing.T) {
	test := &Test{TimeLimitMinutes: 0, MaxAttempts: 0}
	assert.False(t, test.HasTimeLimit(), "0 означает отсутствие лимита времени")
	assert.False(t, test.HasAttemptLimit(), "0 означает неограниченные попытки")

	test.TimeLimitMinutes = 30
	test.MaxAttempts = 3
	assert.True(t, test.HasTimeLimit())
	assert.True(t, test.HasAttemptLimit())
}

func TestAnswerMap_ScanValue_RoundTrip(t *testing.T) {
	// Arrange
	answers := AnswerMap{1: "A", 2: "C", 15: "B"}

	// Act: сериализуем и читаем обратно, как это делает GORM с JSONB
	val, err := answers.Value()
	assert.NoError(t, err)

	var restored AnswerMap
	err = restored.Scan(val.([]byte))

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, answers, restored)
}

func TestAnswerMap_Value_Empty(t *testing.T) {
	var answers AnswerMap

	val, err := answers.Value()

	assert.NoError(t, err)
	assert.Equal(t, "{}", string(val.([]byte)), "nil карта должна сериализоваться в пустой объект")
}

func TestAttempt_TableName(t *testing.T) {
	assert.Equal(t, "test_attempts", Attempt{}.TableName())
}
