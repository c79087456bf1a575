package navigation

import (
	"strings"
	"sync"
)

type Tab string

const (
	TabHome    Tab = "home"
	TabInvest  Tab = "invest"
	TabTrade   Tab = "trade"
	TabProfile Tab = "profile"
)

// DefaultTab is where a fresh history, login and logout land.
const DefaultTab = TabHome

// ParseTab accepts one of the known tab names in any case.
func ParseTab(s string) (Tab, bool) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabHome, TabInvest, TabTrade, TabProfile:
		return t, true
	}
	return "", false
}

// State is a point-in-time view of the history.
type State struct {
	Active    Tab   `json:"active"`
	History   []Tab `json:"history"`
	CanGoBack bool  `json:"canGoBack"`
}

// History tracks the active tab and a stack of previously active tabs.
type History struct {
	mu     sync.Mutex
	active Tab
	stack  []Tab
}

func NewHistory() *History {
	return &History{active: DefaultTab}
}

// Navigate pushes the current tab and activates tab. Navigating to the
// active tab does nothing.
func (h *History) Navigate(tab Tab) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tab == h.active {
		return
	}
	h.stack = append(h.stack, h.active)
	h.active = tab
}

// Back pops the most recent tab. It reports false when the stack was empty.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.stack) == 0 {
		return false
	}
	last := len(h.stack) - 1
	h.active = h.stack[last]
	h.stack = h.stack[:last]
	return true
}

// Reset empties the stack and returns to DefaultTab.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stack = nil
	h.active = DefaultTab
}

func (h *History) Active() Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *History) CanGoBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack) > 0
}

func (h *History) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	stack := make([]Tab, len(h.stack))
	copy(stack, h.stack)
	return State{Active: h.active, History: stack, CanGoBack: len(stack) > 0}
}
