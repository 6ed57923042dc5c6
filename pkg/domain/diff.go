package domain

import (
	"encoding/json"
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is serialized to JSON for partial updates on streaming clients.
type SessionDiff struct {
	SessionID string `json:"session_id"`

	State *State `json:"state,omitempty"`

	// Data contains only changed, added or removed fields.
	// Removed fields are present with a nil value.
	Data map[string]any `json:"data,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`

	// Pending is the full pending queue whenever it changed.
	Pending *[]string `json:"pending_messages,omitempty"`

	Reset bool `json:"reset,omitempty"`
}

// HistoryDelta represents entries appended to the conversation history.
type HistoryDelta struct {
	Appended []Entry `json:"appended"`
}

// Diff calculates the difference between old and new.
// If old is nil, the diff carries the whole of new (initial load).
// It returns nil when nothing changed.
func Diff(old, new *Session) *SessionDiff {
	if new == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: new.ID}

	if old == nil || old.State != new.State {
		diff.State = new.State.Ptr()
	}

	diff.Data = diffData(old, new)
	diff.History, diff.Reset = diffHistory(old, new)

	if old == nil || !reflect.DeepEqual(old.Pending, new.Pending) {
		if old != nil || len(new.Pending) > 0 {
			pending := append([]string{}, new.Pending...)
			diff.Pending = &pending
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffData(old, new *Session) map[string]any {
	newFields := fieldMap(new.Data)
	delta := make(map[string]any)

	if old == nil {
		for k, v := range newFields {
			delta[k] = v
		}
	} else {
		oldFields := fieldMap(old.Data)
		for k, v := range newFields {
			if prev, ok := oldFields[k]; !ok || !reflect.DeepEqual(prev, v) {
				delta[k] = v
			}
		}
		for k := range oldFields {
			if _, ok := newFields[k]; !ok {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// fieldMap flattens Data into its JSON field names. Unset fields are absent.
func fieldMap(d Data) map[string]any {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// diffHistory assumes append-only history. A shorter history means the session was reset,
// in which case the whole new history is sent.
func diffHistory(old, new *Session) (*HistoryDelta, bool) {
	if old == nil {
		if len(new.History) == 0 {
			return nil, false
		}
		return &HistoryDelta{Appended: append([]Entry(nil), new.History...)}, false
	}

	oldLen, newLen := len(old.History), len(new.History)
	switch {
	case newLen < oldLen:
		if newLen == 0 {
			return nil, true
		}
		return &HistoryDelta{Appended: append([]Entry(nil), new.History...)}, true
	case newLen > oldLen:
		return &HistoryDelta{Appended: append([]Entry(nil), new.History[oldLen:]...)}, false
	}
	return nil, false
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.State == nil &&
		len(d.Data) == 0 &&
		d.History == nil &&
		d.Pending == nil &&
		!d.Reset
}
