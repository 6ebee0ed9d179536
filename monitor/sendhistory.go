package monitor

import "strings"

// DefaultSendHistory is how many sent entries a SendHistory keeps.
const DefaultSendHistory = 20

// SendHistory remembers what was sent so it can be recalled with up/down
// navigation. Repeating the newest entry does not add a new one.
type SendHistory struct {
	entries []string
	max     int
	index   int // -1 when not navigating
	draft   string
}

// NewSendHistory keeps up to max entries; max <= 0 selects
// DefaultSendHistory.
func NewSendHistory(max int) *SendHistory {
	if max <= 0 {
		max = DefaultSendHistory
	}
	return &SendHistory{max: max, index: -1}
}

// Add records entry as the newest and ends any navigation.
func (h *SendHistory) Add(entry string) {
	h.index = -1
	h.draft = ""
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.max {
		h.entries = append(h.entries[:0], h.entries[len(h.entries)-h.max:]...)
	}
}

// Entries returns the history, oldest first.
func (h *SendHistory) Entries() []string {
	return append([]string(nil), h.entries...)
}

func (h *SendHistory) Len() int { return len(h.entries) }

// Prev steps to an older entry. current is what the user was typing; it
// is restored when Next walks past the newest entry.
func (h *SendHistory) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.index == -1:
		h.draft = current
		h.index = len(h.entries) - 1
	case h.index > 0:
		h.index--
	}
	return h.entries[h.index], true
}

// Next steps to a newer entry, ending with the saved draft.
func (h *SendHistory) Next() (string, bool) {
	if h.index == -1 {
		return "", false
	}
	if h.index < len(h.entries)-1 {
		h.index++
		return h.entries[h.index], true
	}
	draft := h.draft
	h.index = -1
	h.draft = ""
	return draft, true
}
