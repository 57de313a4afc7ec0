package feedclient

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyReply reports a submit with no reply text
var ErrEmptyReply = errors.New("feedclient: reply text is empty")

// ReplyComposer is the interaction state for replying to a comment from a
// feed entry. On successful submission the reply is attached to the entry
// it was composed from and the composer closes; on failure it stays open
// with its text intact and no state is committed anywhere.
type ReplyComposer struct {
	vm    *FeedViewModel
	index int

	// Replying is whether the composer is open
	Replying bool

	// Text is the draft reply
	Text string
}

// NewReplyComposer creates a composer for the feed entry at index
func NewReplyComposer(vm *FeedViewModel, index int) *ReplyComposer {
	return &ReplyComposer{vm: vm, index: index}
}

// Toggle opens or closes the composer
func (rc *ReplyComposer) Toggle() {
	rc.Replying = !rc.Replying
}

// Submit posts the draft as a reply to the comment the entry concerns.
// The entry's notification id rides along so the server attaches the new
// reply to it, matching the AttachReply the cache performs here.
func (rc *ReplyComposer) Submit(ctx context.Context) error {
	if strings.TrimSpace(rc.Text) == "" {
		return ErrEmptyReply
	}
	if rc.index < 0 || rc.index >= len(rc.vm.Result) {
		return ErrIndexOutOfRange
	}
	entry := rc.vm.Result[rc.index]
	if entry.Comment == nil {
		return errors.New("feedclient: notification has no comment to reply to")
	}

	reply, err := rc.vm.client.CreateReply(ctx, entry.Comment.ID, rc.Text, entry.ID)
	if err != nil {
		return err
	}

	rc.vm.AttachReply(rc.index, reply)
	rc.Text = ""
	rc.Replying = false
	return nil
}
