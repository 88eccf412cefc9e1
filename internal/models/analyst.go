package models

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// TaskItem is one entry of the analyst's checklist.
type TaskItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// IOCItem is an indicator of compromise.
type IOCItem struct {
	ID    string   `json:"id"`
	Text  string   `json:"text"`
	Color ColorTag `json:"color"`
}

// TimelineEvent is a manually recorded event. Date and Time are naive local values.
type TimelineEvent struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Description string   `json:"description"`
	Color       ColorTag `json:"color"`
}

// AnalystData is the notebook embedded in every case.
type AnalystData struct {
	Notes    string          `json:"notes"`
	Tasks    []TaskItem      `json:"tasks"`
	IOCs     []IOCItem       `json:"iocs"`
	Timeline []TimelineEvent `json:"timeline"`
}

func newAnalystData() AnalystData {
	return AnalystData{
		Notes:    "",
		Tasks:    []TaskItem{},
		IOCs:     []IOCItem{},
		Timeline: []TimelineEvent{},
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// SetNotes replaces the free-form notes.
func (c *Case) SetNotes(text string) bool {
	c.AnalystData.Notes = text
	return true
}

// AddTask appends an open task. Blank text is rejected.
func (c *Case) AddTask(text string) (TaskItem, bool) {
	if isBlank(text) {
		return TaskItem{}, false
	}
	task := TaskItem{ID: newID(), Text: text, Completed: false}
	c.AnalystData.Tasks = append(c.AnalystData.Tasks, task)
	return task, true
}

// ToggleTask flips the completion flag of the task with taskID.
func (c *Case) ToggleTask(taskID string) bool {
	i := slices.IndexFunc(c.AnalystData.Tasks, func(t TaskItem) bool { return t.ID == taskID })
	if i < 0 {
		return false
	}
	c.AnalystData.Tasks[i].Completed = !c.AnalystData.Tasks[i].Completed
	return true
}

// RemoveTask deletes the task with taskID.
func (c *Case) RemoveTask(taskID string) bool {
	before := len(c.AnalystData.Tasks)
	c.AnalystData.Tasks = slices.DeleteFunc(c.AnalystData.Tasks, func(t TaskItem) bool { return t.ID == taskID })
	return len(c.AnalystData.Tasks) != before
}

// AddOrUpdateIOC updates the indicator with editingID in place, or appends a new one when editingID is empty or
// unknown. Blank text is rejected and colors outside the palette fall back to the IOC default.
func (c *Case) AddOrUpdateIOC(text string, color ColorTag, editingID string) (IOCItem, bool) {
	if isBlank(text) {
		return IOCItem{}, false
	}
	color = colorOrDefault(color, DefaultIOCColor)
	if editingID != "" {
		for i := range c.AnalystData.IOCs {
			if c.AnalystData.IOCs[i].ID == editingID {
				c.AnalystData.IOCs[i].Text = text
				c.AnalystData.IOCs[i].Color = color
				return c.AnalystData.IOCs[i], true
			}
		}
	}
	ioc := IOCItem{ID: newID(), Text: text, Color: color}
	c.AnalystData.IOCs = append(c.AnalystData.IOCs, ioc)
	return ioc, true
}

// RemoveIOC deletes the indicator with iocID.
func (c *Case) RemoveIOC(iocID string) bool {
	before := len(c.AnalystData.IOCs)
	c.AnalystData.IOCs = slices.DeleteFunc(c.AnalystData.IOCs, func(i IOCItem) bool { return i.ID == iocID })
	return len(c.AnalystData.IOCs) != before
}

// AddOrUpdateTimelineEvent updates the event with editingID in place, or appends a new one. Date, time, and
// description are all required. The timeline is re-sorted after every change.
func (c *Case) AddOrUpdateTimelineEvent(
	date, clock, description string,
	color ColorTag,
	editingID string,
) (TimelineEvent, bool) {
	if isBlank(date) || isBlank(clock) || isBlank(description) {
		return TimelineEvent{}, false
	}
	color = colorOrDefault(color, DefaultTimelineColor)
	event := TimelineEvent{ID: "", Date: date, Time: clock, Description: description, Color: color}
	updated := false
	if editingID != "" {
		for i := range c.AnalystData.Timeline {
			if c.AnalystData.Timeline[i].ID == editingID {
				event.ID = editingID
				c.AnalystData.Timeline[i] = event
				updated = true
				break
			}
		}
	}
	if !updated {
		event.ID = newID()
		c.AnalystData.Timeline = append(c.AnalystData.Timeline, event)
	}
	SortTimeline(c.AnalystData.Timeline)
	return event, true
}

// RemoveTimelineEvent deletes the event with eventID.
func (c *Case) RemoveTimelineEvent(eventID string) bool {
	before := len(c.AnalystData.Timeline)
	c.AnalystData.Timeline = slices.DeleteFunc(c.AnalystData.Timeline,
		func(e TimelineEvent) bool { return e.ID == eventID })
	return len(c.AnalystData.Timeline) != before
}

var clockLayouts = []string{"15:04:05", "15:04"}

// Instant combines the calendar date and time of day into one comparable value.
func (e TimelineEvent) Instant() (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(e.Date))
	if err != nil {
		return time.Time{}, false
	}
	for _, layout := range clockLayouts {
		clock, err := time.Parse(layout, strings.TrimSpace(e.Time))
		if err == nil {
			offset := time.Duration(clock.Hour())*time.Hour +
				time.Duration(clock.Minute())*time.Minute +
				time.Duration(clock.Second())*time.Second
			return date.Add(offset), true
		}
	}
	return time.Time{}, false
}

// CompareTimelineEvents orders events by their instant. Events that cannot be parsed sort after parseable ones
// and compare lexically among themselves.
func CompareTimelineEvents(a, b TimelineEvent) int {
	ai, aok := a.Instant()
	bi, bok := b.Instant()
	switch {
	case aok && bok:
		return ai.Compare(bi)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return cmp.Compare(a.Date+" "+a.Time, b.Date+" "+b.Time)
	}
}

// SortTimeline sorts events ascending by date and time, keeping insertion order for ties.
func SortTimeline(events []TimelineEvent) {
	slices.SortStableFunc(events, CompareTimelineEvents)
}
