// Package keys contains keybinding definitions for the queue TUI.
package keys

import "github.com/charmbracelet/bubbles/key"

// Common contains keybindings shared across every view.
var Common = struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Escape key.Binding
	Quit   key.Binding
	Help   key.Binding
}{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "move down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
}

// Queue contains keybindings for driving QueueScheduler from the dispatch
// view: start/pause/skip/reset/seek and reordering the pending list.
var Queue = struct {
	Toggle     key.Binding // start if paused, pause if running
	Skip       key.Binding
	Reset      key.Binding
	SeekLeft   key.Binding // nudge the pending wait earlier
	SeekRight  key.Binding // nudge the pending wait later
	MoveUp     key.Binding // reorder selected item up
	MoveDown   key.Binding // reorder selected item down
	Remove     key.Binding
	Add        key.Binding
	NextChip   key.Binding // cycle thread/editor chip focus for ForceRefresh
	ForceChip  key.Binding
	SwitchSite key.Binding
}{
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "start/pause"),
	),
	Skip: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "skip current wait"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset queue"),
	),
	SeekLeft: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "shorten remaining wait"),
	),
	SeekRight: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "lengthen remaining wait"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("ctrl+k", "ctrl+up"),
		key.WithHelp("ctrl+k", "move item up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("ctrl+j", "ctrl+down"),
		key.WithHelp("ctrl+j", "move item down"),
	),
	Remove: key.NewBinding(
		key.WithKeys("d", "backspace"),
		key.WithHelp("d", "remove item"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add item"),
	),
	NextChip: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch token chip"),
	),
	ForceChip: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "force chip refresh"),
	),
	SwitchSite: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "switch site"),
	),
}

// Profile contains keybindings for the profile switcher overlay.
var Profile = struct {
	Open   key.Binding
	Select key.Binding
	New    key.Binding
	Delete key.Binding
	Close  key.Binding
}{
	Open: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "switch profile"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select profile"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new profile"),
	),
	Delete: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "delete profile"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
}

// Component contains keybindings shared across small editing widgets (the
// add-item prompt, the new-profile name field).
var Component = struct {
	Confirm key.Binding
	Cancel  key.Binding
}{
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// ShortHelp returns keybindings for the short help view.
func ShortHelp() []key.Binding {
	return []key.Binding{Common.Help, Common.Quit}
}

// FullHelp returns keybindings for the full help view.
func FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{Common.Up, Common.Down, Queue.MoveUp, Queue.MoveDown},
		{Queue.Toggle, Queue.Skip, Queue.Reset, Queue.SeekLeft, Queue.SeekRight},
		{Queue.Add, Queue.Remove, Queue.NextChip, Queue.ForceChip, Queue.SwitchSite},
		{Profile.Open, Common.Help, Common.Quit},
	}
}
