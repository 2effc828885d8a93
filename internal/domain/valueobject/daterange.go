package valueobject

import (
	"math"
	"time"
)

// Overlaps проверяет пересечение полуоткрытых интервалов [aStart, aEnd) и [bStart, bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Slot: окно доступности, объявленное владельцем.
type Slot struct {
	Start time.Time
	End   time.Time
}

// WithinAvailability возвращает true, если окон нет или запрос целиком помещается в одно окно.
// Запрос не разбивается между несколькими соседними окнами.
func WithinAvailability(reqStart, reqEnd time.Time, slots []Slot) bool {
	if len(slots) == 0 {
		return true
	}
	for _, slot := range slots {
		if !slot.Start.After(reqStart) && !slot.End.Before(reqEnd) {
			return true
		}
	}
	return false
}

// DurationDays возвращает количество суток аренды, неполные сутки округляются вверх.
func DurationDays(start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}
	return int64(math.Ceil(end.Sub(start).Hours() / 24))
}
