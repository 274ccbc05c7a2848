package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strconv"
)

// AnswerMap - карта ответов студента: ID вопроса -> выбранная буквенная метка.
// Вопрос, отсутствующий в карте, считается неотвеченным. Multi-select не поддерживается.
// Хранится в JSONB; ключи сериализуются строками, как того требует JSON.
type AnswerMap map[uint]string

// Scan реализует интерфейс sql.Scanner для AnswerMap
func (a *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*a = AnswerMap{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = AnswerMap{}
		return nil
	}

	raw := map[string]string{}
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return err
	}

	result := make(AnswerMap, len(raw))
	for key, letter := range raw {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return errors.New("failed to unmarshal AnswerMap: question id is not numeric: " + key)
		}
		result[uint(id)] = letter
	}
	*a = result
	return nil
}

// Value реализует интерфейс driver.Valuer для AnswerMap
func (a AnswerMap) Value() (driver.Value, error) {
	if a == nil || len(a) == 0 {
		return []byte("{}"), nil // Пустой JSON объект вместо null
	}
	raw := make(map[string]string, len(a))
	for id, letter := range a {
		raw[strconv.FormatUint(uint64(id), 10)] = letter
	}
	return json.Marshal(raw)
}

// Clone возвращает независимую копию карты ответов.
// Используется при снятии снапшота на момент сабмита.
func (a AnswerMap) Clone() AnswerMap {
	cloned := make(AnswerMap, len(a))
	for id, letter := range a {
		cloned[id] = letter
	}
	return cloned
}
