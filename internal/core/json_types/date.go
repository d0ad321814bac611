package json_types

import (
	"fmt"
	"time"
)

// Формы ввода дат, которые встречаются в записях: редактор (datetime-local с секундами и без),
// SQL-формат и RFC3339
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(str string) (time.Time, error) {
	if parsedDate, err := time.Parse(time.RFC3339, str); err == nil {
		return parsedDate, nil
	}

	for _, layout := range dateLayouts {
		if parsedDate, err := time.ParseInLocation(layout, str, time.UTC); err == nil {
			return parsedDate, nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse date %q", str)
}
