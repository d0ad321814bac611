package json_types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Timestamp - время в unix-секундах, как его отдает API клиники
type Timestamp struct {
	Time time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*t = Timestamp{}
		return nil
	}

	// Некоторые ресурсы отдают секунды строкой
	str := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		str = string(data[1 : len(data)-1])
	}
	if str == "" {
		*t = Timestamp{}
		return nil
	}

	seconds, err := strconv.ParseFloat(str, 64)
	if err != nil {
		// Неизвестный формат даты не должен ломать весь список: такая дата считается пустой
		parsed, _ := parseDate(str)
		*t = Timestamp{Time: parsed}
		return nil
	}

	*t = Timestamp{Time: time.Unix(int64(seconds), 0).UTC()}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Unix())
}

func (t Timestamp) IsZero() bool {
	return t.Time.IsZero()
}
