// Package broadcastbus implements the inter-tab profileChanged fanout
// described in spec §4.2, built on pubsub.Broker the way the teacher builds
// its own event fanout on that same broker.
package broadcastbus

import (
	"context"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/pubsub"
)

// Origin identifies who triggered a profile change, mirroring the two
// origins spec §4.1 names for saveConfig's broadcast.
type Origin string

const (
	OriginInline Origin = "inline"
	OriginPanel  Origin = "panel"
)

// ProfileChangedMessage is the payload fanned out to every host tab except
// the one that triggered the change.
type ProfileChangedMessage struct {
	ProfileName string
	Origin      Origin
	// ExcludeTabID names the tab that triggered the change, if any;
	// subscribers discard a message whose ExcludeTabID equals their own id.
	ExcludeTabID string
}

// Bus delivers profileChanged messages to every host tab, excluding the
// originating tab. Delivery is best-effort: a tab without a live
// subscription simply never sees the message, matching spec §4.2's "failures
// for tabs without a content script are ignored."
type Bus struct {
	broker *pubsub.Broker[ProfileChangedMessage]
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{broker: pubsub.NewBroker[ProfileChangedMessage]()}
}

// Subscribe registers tabID as a listener until ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, tabID string) <-chan pubsub.Event[ProfileChangedMessage] {
	return b.broker.Subscribe(ctx)
}

// Broadcast delivers msg to every subscribed tab other than excludeTabID.
// Ordering is best-effort and delivery is non-blocking, matching §4.2. The
// broker fans out to every subscriber channel with no per-channel identity,
// so exclusion is carried in the payload; subscribers compare
// ExcludeTabID against their own tab id and discard self-originated
// messages, the same self-discard-at-dispatch approach spec §4.2 describes
// for the browser's own runtime.sendMessage broadcast.
func (b *Bus) Broadcast(msg ProfileChangedMessage, excludeTabID string) {
	msg.ExcludeTabID = excludeTabID
	b.broker.Publish(pubsub.UpdatedEvent, msg)
}

// Close shuts down the bus and all subscriber channels.
func (b *Bus) Close() { b.broker.Close() }

// ShouldHandle reports whether a tab with id tabID should act on msg,
// implementing the excludeTabId self-discard contract.
func ShouldHandle(msg ProfileChangedMessage, tabID string) bool {
	return msg.ExcludeTabID == "" || msg.ExcludeTabID != tabID
}
