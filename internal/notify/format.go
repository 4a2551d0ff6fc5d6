package notify

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
)

// statusDisplay emoji и текст для статуса слота
type statusDisplay struct {
	Emoji string
	Text  string
}

func slotStatusDisplay(status model.SlotStatus) statusDisplay {
	displays := map[model.SlotStatus]statusDisplay{
		model.SlotStatusBusy:        {"🔴", "busy"},
		model.SlotStatusSwappable:   {"🟢", "swappable"},
		model.SlotStatusSwapPending: {"⏳", "swap pending"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return statusDisplay{"❓", "unknown"}
}

// formatTimeRange форматирует интервал; дата конца печатается, только если отличается
func formatTimeRange(start, end time.Time) string {
	if start.Format("02.01.2006") == end.Format("02.01.2006") {
		return fmt.Sprintf("%s-%s", start.Format("02.01.2006 15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", start.Format("02.01.2006 15:04"), end.Format("02.01.2006 15:04"))
}

// formatSlot строка вида "Title, 05.01.2026 09:00-10:00 (UTC)"
func formatSlot(s *model.SlotSummary) string {
	if s == nil {
		return "a slot"
	}
	start, end := s.StartTime.UTC(), s.EndTime.UTC()
	return fmt.Sprintf("%q, %s (UTC)", s.Title, formatTimeRange(start, end))
}

func formatSlotLine(label string, s *model.SlotSummary) string {
	if s == nil {
		return label + ": unknown"
	}
	d := slotStatusDisplay(s.Status)
	return fmt.Sprintf("%s %s: %s, %s", d.Emoji, label, formatSlot(s), d.Text)
}
