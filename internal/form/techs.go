package form

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIndexOutOfRange is returned when a tech list operation addresses a missing entry.
var ErrIndexOutOfRange = errors.New("tech entry index out of range")

// TechEntry is one editable row of the techs list. ID is assigned on append
// and stays with the entry for its whole life, whatever its position.
type TechEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TechPath returns the field path of the title at index i.
func TechPath(i int) string {
	return fmt.Sprintf("techs.%d.title", i)
}

// TechList is the ordered, user-editable list backing the techs field.
// It does not enforce the minimum count; that is checked at validation time.
// TechList is not safe for concurrent use.
type TechList struct {
	entries []TechEntry
}

// NewTechList creates a list pre-filled with the given titles.
func NewTechList(titles ...string) *TechList {
	l := &TechList{}
	for _, t := range titles {
		l.Append()
		l.entries[len(l.entries)-1].Title = t
	}
	return l
}

// Append adds an entry with an empty title at the end.
func (l *TechList) Append() TechEntry {
	e := TechEntry{ID: uuid.NewString()}
	l.entries = append(l.entries, e)
	return e
}

// Remove deletes the entry at index. Later entries shift down by one and
// keep their IDs and titles.
func (l *TechList) Remove(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("remove %d of %d: %w", index, len(l.entries), ErrIndexOutOfRange)
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return nil
}

// SetTitle updates the title of the entry at index.
func (l *TechList) SetTitle(index int, title string) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("set title %d of %d: %w", index, len(l.entries), ErrIndexOutOfRange)
	}
	l.entries[index].Title = title
	return nil
}

// Entries returns a copy of the current entries in order.
func (l *TechList) Entries() []TechEntry {
	out := make([]TechEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *TechList) Len() int {
	return len(l.entries)
}
