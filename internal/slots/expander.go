// Package slots превращает еженедельные правила доступности в конкретные слоты
// и проверяет их на пересечения с уже забронированными сессиями.
package slots

import (
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Expand возвращает все слоты на дату, сгенерированные активными правилами
// с подходящим днём недели. Результат отсортирован по началу.
// slotMinutes <= 0 означает длительность из самого правила.
func Expand(rules []*model.AvailabilityRule, date time.Time, slotMinutes int) []model.Slot {
	it := NewIterator(rules, date, slotMinutes)

	var result []model.Slot
	for {
		slot, ok := it.Next()
		if !ok {
			break
		}
		result = append(result, slot)
	}
	return result
}

// cursor: позиция обхода одного правила
type cursor struct {
	rule *model.AvailabilityRule
	next model.Clock
	slot int
	step int
	done bool
}

func (c *cursor) fits() bool {
	return !c.done && c.next.Add(c.slot) <= c.rule.EndTime
}

// Iterator лениво выдаёт слоты на одну дату в порядке начала.
// Последовательность конечна, Reset начинает обход заново.
type Iterator struct {
	date    time.Time
	cursors []*cursor
}

func NewIterator(rules []*model.AvailabilityRule, date time.Time, slotMinutes int) *Iterator {
	date = model.DateOf(date)
	it := &Iterator{date: date}

	for _, rule := range rules {
		if rule == nil || !rule.AppliesTo(date) || rule.StartTime >= rule.EndTime {
			continue
		}
		length := slotMinutes
		if length <= 0 {
			length = rule.SlotMinutes
		}
		if length <= 0 {
			length = model.DefaultSlotMinutes
		}
		gap := rule.BreakMinutes
		if gap < 0 {
			gap = 0
		}
		it.cursors = append(it.cursors, &cursor{
			rule: rule,
			next: rule.StartTime,
			slot: length,
			step: length + gap,
		})
	}
	return it
}

// Next возвращает очередной слот; false, когда слоты закончились
func (it *Iterator) Next() (model.Slot, bool) {
	var best *cursor
	for _, c := range it.cursors {
		if !c.fits() {
			c.done = true
			continue
		}
		if best == nil || c.next < best.next {
			best = c
		}
	}
	if best == nil {
		return model.Slot{}, false
	}

	slot := model.Slot{
		TimeSlot: model.TimeSlot{
			Date:  it.date,
			Start: best.next,
			End:   best.next.Add(best.slot),
		},
		RuleID: best.rule.ID,
	}
	best.next = best.next.Add(best.step)
	return slot, true
}

// Reset возвращает итератор к началу дня
func (it *Iterator) Reset() {
	for _, c := range it.cursors {
		c.next = c.rule.StartTime
		c.done = false
	}
}
