package feedclient

import (
	"context"
	"errors"
)

var (
	// ErrStaleResponse reports that a fetch completed after the view model
	// moved to a different filter; its payload was discarded, not merged.
	ErrStaleResponse = errors.New("feedclient: stale fetch response discarded")

	// ErrDeleteInFlight reports that a deletion for the same entry is
	// already running; the duplicate request was not sent.
	ErrDeleteInFlight = errors.New("feedclient: delete already in flight")

	// ErrIndexOutOfRange reports an index outside the cached result
	ErrIndexOutOfRange = errors.New("feedclient: index out of range")
)

// FeedViewModel holds the locally cached feed and keeps it consistent with
// the server across incremental fetches and single-item deletions, without
// re-fetching the whole feed.
//
// All methods are meant to run on a single goroutine (the UI update path);
// the view model does no locking of its own.
type FeedViewModel struct {
	client *Client
	filter string
	page   int64

	// fetchSeq invalidates in-flight fetches when the filter changes: a
	// response is applied only if no newer fetch or filter change started
	// after it.
	fetchSeq uint64

	// deleting guards against duplicate submission while a deletion is on
	// the wire, keyed by notification id.
	deleting map[string]bool

	// Result is the cached feed in server order, newest first.
	Result []Notification

	// TotalDocs is the total matching count as last reported by the server,
	// decremented locally when a whole entry is removed.
	TotalDocs int64

	// DeletedDocCount counts entries this client removed from Result since
	// the last full fetch. It is sent with the next page request so the
	// server can compensate its skip offset; the next full fetch resets it.
	DeletedDocCount int64
}

// NewFeedViewModel creates a view model over the "all" filter
func NewFeedViewModel(client *Client) *FeedViewModel {
	return &FeedViewModel{
		client:   client,
		filter:   "all",
		deleting: make(map[string]bool),
	}
}

// Filter returns the active filter
func (vm *FeedViewModel) Filter() string {
	return vm.filter
}

// Page returns the last fetched page number, 0 before the first fetch
func (vm *FeedViewModel) Page() int64 {
	return vm.page
}

// SetFilter switches the feed to a different filter. The cached page is
// abandoned: the next fetch starts from page 1, and any fetch still in
// flight for the old filter will be discarded when it lands.
func (vm *FeedViewModel) SetFilter(filter string) {
	if filter == "" {
		filter = "all"
	}
	vm.filter = filter
	vm.page = 0
	vm.fetchSeq++
}

// FetchNextPage fetches the page after the last one applied. The first page
// under a filter replaces the cache wholesale, re-reads the total count and
// resets the deletion counter; later pages append and keep it, sending the
// current count so the server skips past exactly the entries this client
// still attributes to earlier pages.
func (vm *FeedViewModel) FetchNextPage(ctx context.Context) error {
	vm.fetchSeq++
	seq := vm.fetchSeq
	page := vm.page + 1
	filter := vm.filter

	var deleted int64
	if page > 1 {
		deleted = vm.DeletedDocCount
	}

	notifications, err := vm.client.FetchFeedPage(ctx, page, filter, deleted)
	if err != nil {
		return err
	}

	if page == 1 {
		totalDocs, err := vm.client.CountNotifications(ctx, filter)
		if err != nil {
			return err
		}
		if seq != vm.fetchSeq {
			return ErrStaleResponse
		}
		vm.Result = notifications
		vm.TotalDocs = totalDocs
		vm.DeletedDocCount = 0
	} else {
		if seq != vm.fetchSeq {
			return ErrStaleResponse
		}
		vm.Result = append(vm.Result, notifications...)
	}

	vm.page = page
	return nil
}

// HasMore reports whether the server holds entries beyond the cache
func (vm *FeedViewModel) HasMore() bool {
	return int64(len(vm.Result)) < vm.TotalDocs
}

// OnDeleteComment removes the whole entry at index from the cache after the
// comment that was the notification's subject was deleted. The displayed
// total shrinks by one and the deletion counter grows by one, keeping the
// next page's server-side skip aligned without a round-trip.
func (vm *FeedViewModel) OnDeleteComment(index int) {
	if index < 0 || index >= len(vm.Result) {
		return
	}
	vm.Result = append(vm.Result[:index], vm.Result[index+1:]...)
	vm.TotalDocs--
	vm.DeletedDocCount++
}

// OnDeleteReply detaches the reply from the entry at index after the reply
// was deleted. The notification itself survives server-side, so neither
// TotalDocs nor DeletedDocCount moves; conflating this with OnDeleteComment
// would desynchronize the pagination offset from the server.
func (vm *FeedViewModel) OnDeleteReply(index int) {
	if index < 0 || index >= len(vm.Result) {
		return
	}
	vm.Result[index].Reply = nil
}

// AttachReply sets the reply reference on the entry at index, used after a
// reply composed from that entry was accepted by the server
func (vm *FeedViewModel) AttachReply(index int, reply *CommentRef) {
	if index < 0 || index >= len(vm.Result) {
		return
	}
	vm.Result[index].Reply = reply
}

// DeleteComment deletes the comment behind the entry at index server-side
// and, only once the server confirms, removes the entry from the cache.
// While the call is on the wire further deletions of the same entry are
// rejected; on failure the cache is left untouched.
func (vm *FeedViewModel) DeleteComment(ctx context.Context, index int) error {
	if index < 0 || index >= len(vm.Result) {
		return ErrIndexOutOfRange
	}
	entry := vm.Result[index]
	if entry.Comment == nil {
		return errors.New("feedclient: notification has no comment to delete")
	}

	if vm.deleting[entry.ID] {
		return ErrDeleteInFlight
	}
	vm.deleting[entry.ID] = true
	defer delete(vm.deleting, entry.ID)

	if err := vm.client.DeleteComment(ctx, entry.Comment.ID); err != nil {
		return err
	}

	vm.OnDeleteComment(index)
	return nil
}

// DeleteReply deletes the reply attached to the entry at index server-side
// and, once confirmed, detaches it from the cache. The entry itself stays.
func (vm *FeedViewModel) DeleteReply(ctx context.Context, index int) error {
	if index < 0 || index >= len(vm.Result) {
		return ErrIndexOutOfRange
	}
	entry := vm.Result[index]
	if entry.Reply == nil {
		return errors.New("feedclient: notification has no reply to delete")
	}

	if vm.deleting[entry.ID] {
		return ErrDeleteInFlight
	}
	vm.deleting[entry.ID] = true
	defer delete(vm.deleting, entry.ID)

	if err := vm.client.DeleteComment(ctx, entry.Reply.ID); err != nil {
		return err
	}

	vm.OnDeleteReply(index)
	return nil
}
