// Пакет expiry — календарная логика сроков истечения и состояния версий.
// Чистые функции без побочных эффектов.
package expiry

import "time"

// Состояния жизненного цикла версии.
const (
	StateDraft       = "draft"
	StatePublished   = "published"
	StateUnpublished = "unpublished"
	StateArchived    = "archived"
)

// States — все состояния в порядке жизненного цикла.
var States = []string{StateDraft, StatePublished, StateUnpublished, StateArchived}

// DefaultWindowDays — ширина окна по умолчанию для фильтра по дате истечения.
const DefaultWindowDays = 30

// IsValidState проверяет, является ли строка допустимым состоянием версии.
func IsValidState(state string) bool {
	for _, s := range States {
		if s == state {
			return true
		}
	}
	return false
}

// AddMonths прибавляет months календарных месяцев к дате.
// День месяца сохраняется; если в целевом месяце дней меньше,
// день прижимается к последнему дню месяца (31 января + 1 месяц —
// последний день февраля, а не 2-3 марта, как у time.AddDate).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	// time.Date нормализует переполнение месяца (month 13 → январь
	// следующего года), поэтому переносим на первое число и только
	// потом восстанавливаем день с прижатием.
	first := time.Date(year, month+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DefaultWindow возвращает окно фильтра по дате истечения по умолчанию:
// скользящие 30 дней, заканчивающиеся now.
func DefaultWindow(now time.Time) (from, to time.Time) {
	return now.AddDate(0, 0, -DefaultWindowDays), now
}

// daysIn возвращает количество дней в месяце.
// Нулевой день следующего месяца — последний день текущего.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
