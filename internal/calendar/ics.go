// Package calendar экспортирует слоты пользователя в iCalendar.
package calendar

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/Freeeeeet/slot_swap/internal/model"
)

const (
	productID = "-//Freeeeeet//slot_swap//EN"

	// PropertySlotStatus статус слота в исходном виде
	PropertySlotStatus = ical.ComponentProperty("X-SLOT-STATUS")
)

// Export собирает календарь из слотов
func Export(name string, slots []*model.Slot, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	for _, slot := range slots {
		ev := cal.AddEvent(slot.ID.String() + "@slot_swap")
		ev.SetDtStampTime(now.UTC())
		ev.SetCreatedTime(slot.CreatedAt.UTC())
		ev.SetModifiedAt(slot.UpdatedAt.UTC())
		ev.SetStartAt(slot.StartTime.UTC())
		ev.SetEndAt(slot.EndTime.UTC())
		ev.SetSummary(slot.Title)
		ev.AddProperty(ical.ComponentPropertyCategories, string(slot.Status))
		ev.AddProperty(PropertySlotStatus, string(slot.Status))

		// Слот в обмене ещё может уйти другому владельцу
		if slot.Status == model.SlotStatusSwapPending {
			ev.SetStatus(ical.ObjectStatusTentative)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
	}

	return cal.Serialize()
}

// Filename имя файла для Content-Disposition
func Filename(userName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, userName)
	if name == "" {
		name = "slots"
	}
	return name + ".ics"
}
