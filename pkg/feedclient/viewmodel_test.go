package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const serverPageSize = 10

// feedServer is an in-memory stand-in for the notification API: it serves
// the paginated feed with the same compensated-skip arithmetic as the real
// handler and reconciles its list when a comment is deleted.
type feedServer struct {
	mu            sync.Mutex
	notifications []Notification // newest first

	failDelete  bool
	deleteEnter chan struct{} // signalled when a DELETE arrives, if non-nil
	deleteHold  chan struct{} // DELETE blocks until closed, if non-nil
	fetchEnter  chan struct{} // signalled when a feed fetch arrives, if non-nil
	fetchHold   chan struct{} // feed fetch blocks until closed, if non-nil

	nextReplyID uint
}

// seedComments populates count comment notifications, newest first, with
// comment ids "c1" (newest) through "c<count>" (oldest).
func (s *feedServer) seedComments(count int) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.notifications = make([]Notification, count)
	for i := 0; i < count; i++ {
		s.notifications[i] = Notification{
			ID:        fmt.Sprintf("n%d", i+1),
			Type:      "comment",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
			User:      &Actor{ID: 2, Username: "actor2"},
			Comment:   &CommentRef{ID: fmt.Sprintf("c%d", i+1), Comment: fmt.Sprintf("comment %d", i+1)},
		}
	}
	s.nextReplyID = 1000
}

func (s *feedServer) matching(filter string) []Notification {
	out := []Notification{}
	for _, n := range s.notifications {
		if filter != "" && filter != "all" && n.Type != filter {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (s *feedServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/notifications/notifications":
			s.handleFeedPage(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/notifications/all-notification-count":
			s.handleCount(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/notifications/new-notification":
			s.handleBadge(w)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/comments/"):
			s.handleDeleteComment(w, r)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/replies"):
			s.handleCreateReply(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *feedServer) handleFeedPage(w http.ResponseWriter, r *http.Request) {
	if s.fetchEnter != nil {
		s.fetchEnter <- struct{}{}
	}
	if s.fetchHold != nil {
		<-s.fetchHold
	}

	var req struct {
		Page            int64  `json:"page"`
		Filter          string `json:"filter"`
		DeletedDocCount int64  `json:"deletedDoccount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}

	s.mu.Lock()
	matching := s.matching(req.Filter)
	s.mu.Unlock()

	skip := (req.Page-1)*serverPageSize - req.DeletedDocCount
	if skip < 0 {
		skip = 0
	}
	result := []Notification{}
	if skip < int64(len(matching)) {
		end := skip + serverPageSize
		if end > int64(len(matching)) {
			end = int64(len(matching))
		}
		result = matching[skip:end]
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": map[string]interface{}{"result": result},
	})
}

func (s *feedServer) handleCount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filter string `json:"filter"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	count := len(s.matching(req.Filter))
	s.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]int{"totalDocs": count})
}

func (s *feedServer) handleBadge(w http.ResponseWriter) {
	s.mu.Lock()
	available := false
	for _, n := range s.notifications {
		if !n.Seen {
			available = true
			break
		}
	}
	s.mu.Unlock()
	json.NewEncoder(w).Encode(map[string]bool{"new_notification_available": available})
}

// handleDeleteComment removes notifications whose subject the comment was
// and detaches it from notifications that carried it as a reply.
func (s *feedServer) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if s.deleteEnter != nil {
		s.deleteEnter <- struct{}{}
	}
	if s.deleteHold != nil {
		<-s.deleteHold
	}
	if s.failDelete {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "delete failed"})
		return
	}

	commentID := strings.TrimPrefix(r.URL.Path, "/comments/")

	s.mu.Lock()
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.Comment != nil && n.Comment.ID == commentID {
			continue
		}
		if n.Reply != nil && n.Reply.ID == commentID {
			n.Reply = nil
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	s.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{"message": "Comment deleted"})
}

func (s *feedServer) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content        string `json:"content"`
		NotificationID string `json:"notification_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "content required"})
		return
	}

	s.mu.Lock()
	s.nextReplyID++
	id := s.nextReplyID
	s.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"ID": id, "content": req.Content})
}

func newTestViewModel(t *testing.T, srv *feedServer) *FeedViewModel {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	return NewFeedViewModel(NewClient(ts.URL, "test-token"))
}

func feedIDs(notifications []Notification) []string {
	ids := make([]string, len(notifications))
	for i, n := range notifications {
		ids[i] = n.ID
	}
	return ids
}

func TestFetchFirstPage(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(25)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}

	if len(vm.Result) != serverPageSize {
		t.Fatalf("len(Result) = %d, want %d", len(vm.Result), serverPageSize)
	}
	if vm.TotalDocs != 25 {
		t.Fatalf("TotalDocs = %d, want 25", vm.TotalDocs)
	}
	if vm.DeletedDocCount != 0 {
		t.Fatalf("DeletedDocCount = %d, want 0", vm.DeletedDocCount)
	}
	if !vm.HasMore() {
		t.Fatal("HasMore() = false with 15 entries beyond the cache")
	}
	if vm.Result[0].ID != "n1" || vm.Result[9].ID != "n10" {
		t.Fatalf("first page = %v, want n1..n10", feedIDs(vm.Result))
	}
}

// Deleting an entry from page one and then fetching page two must produce
// neither a gap nor a repeat: the compensated skip makes the second page
// start exactly where the thinned-out first page ends.
func TestPaginationContinuityAfterDeletion(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(25)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("fetch page 1: %v", err)
	}
	if err := vm.DeleteComment(context.Background(), 4); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if vm.DeletedDocCount != 1 {
		t.Fatalf("DeletedDocCount = %d, want 1", vm.DeletedDocCount)
	}
	if vm.TotalDocs != 24 {
		t.Fatalf("TotalDocs = %d, want 24", vm.TotalDocs)
	}

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("fetch page 2: %v", err)
	}

	// 9 survivors from page one plus 10 from page two.
	if len(vm.Result) != 19 {
		t.Fatalf("len(Result) = %d, want 19", len(vm.Result))
	}
	seen := map[string]bool{}
	for _, id := range feedIDs(vm.Result) {
		if seen[id] {
			t.Fatalf("entry %s appears twice in the cache", id)
		}
		seen[id] = true
	}
	// The cache must be exactly the server's current order, no gaps.
	want := feedIDs(srv.matching("all")[:19])
	got := feedIDs(vm.Result)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cache diverges from server at %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

// With 12 entries and one deleted from page one, page two is fetched with
// skip 9 and returns the two entries the first page no longer covers.
func TestShortFeedCompensatedSecondPage(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(12)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("fetch page 1: %v", err)
	}
	if err := vm.DeleteComment(context.Background(), 0); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("fetch page 2: %v", err)
	}

	// 9 survivors + the 2 entries past the compensated skip = the entire
	// remaining feed, each exactly once.
	if len(vm.Result) != 11 {
		t.Fatalf("len(Result) = %d, want 11", len(vm.Result))
	}
	want := feedIDs(srv.matching("all"))
	got := feedIDs(vm.Result)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cache diverges from server at %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if vm.HasMore() {
		t.Fatal("HasMore() = true after the whole feed was fetched")
	}
}

func TestOnDeleteReplyKeepsEntryAndCounters(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(12)
	srv.notifications[3].Type = "reply"
	srv.notifications[3].Reply = &CommentRef{ID: "r1", Comment: "a reply"}
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	totalBefore := vm.TotalDocs

	if err := vm.DeleteReply(context.Background(), 3); err != nil {
		t.Fatalf("DeleteReply: %v", err)
	}

	if len(vm.Result) != serverPageSize {
		t.Fatalf("len(Result) = %d, want %d (entry must survive)", len(vm.Result), serverPageSize)
	}
	if vm.Result[3].Reply != nil {
		t.Fatal("reply still attached after DeleteReply")
	}
	if vm.TotalDocs != totalBefore {
		t.Fatalf("TotalDocs = %d, want %d (reply deletion must not shrink the total)", vm.TotalDocs, totalBefore)
	}
	if vm.DeletedDocCount != 0 {
		t.Fatalf("DeletedDocCount = %d, want 0 (no entry was removed)", vm.DeletedDocCount)
	}
}

func TestDeleteCommentFailureLeavesCacheUntouched(t *testing.T) {
	srv := &feedServer{failDelete: true}
	srv.seedComments(12)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	before := feedIDs(vm.Result)

	err := vm.DeleteComment(context.Background(), 2)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("DeleteComment error = %v, want 500 APIError", err)
	}

	after := feedIDs(vm.Result)
	if len(after) != len(before) {
		t.Fatalf("len(Result) = %d, want %d after failed delete", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("cache changed at %d after failed delete", i)
		}
	}
	if vm.TotalDocs != 12 || vm.DeletedDocCount != 0 {
		t.Fatalf("counters moved after failed delete: TotalDocs=%d DeletedDocCount=%d", vm.TotalDocs, vm.DeletedDocCount)
	}

	// The in-flight guard must have been released.
	srv.failDelete = false
	if err := vm.DeleteComment(context.Background(), 2); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(vm.Result) != 9 {
		t.Fatalf("len(Result) = %d, want 9 after successful retry", len(vm.Result))
	}
}

func TestDeleteCommentInFlightGuard(t *testing.T) {
	srv := &feedServer{
		deleteEnter: make(chan struct{}, 1),
		deleteHold:  make(chan struct{}),
	}
	srv.seedComments(12)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- vm.DeleteComment(context.Background(), 0)
	}()

	<-srv.deleteEnter
	if err := vm.DeleteComment(context.Background(), 0); err != ErrDeleteInFlight {
		t.Fatalf("second delete error = %v, want ErrDeleteInFlight", err)
	}

	close(srv.deleteHold)
	if err := <-firstDone; err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if len(vm.Result) != 9 {
		t.Fatalf("len(Result) = %d, want 9 (entry removed exactly once)", len(vm.Result))
	}
}

// A fetch whose response lands after the filter changed must be discarded,
// not merged into the new filter's cache.
func TestStaleResponseDiscardedOnFilterChange(t *testing.T) {
	srv := &feedServer{
		fetchEnter: make(chan struct{}, 1),
		fetchHold:  make(chan struct{}),
	}
	srv.seedComments(12)
	vm := newTestViewModel(t, srv)

	fetchDone := make(chan error, 1)
	go func() {
		fetchDone <- vm.FetchNextPage(context.Background())
	}()

	<-srv.fetchEnter
	vm.SetFilter("like")
	close(srv.fetchHold)

	if err := <-fetchDone; err != ErrStaleResponse {
		t.Fatalf("stale fetch error = %v, want ErrStaleResponse", err)
	}
	if len(vm.Result) != 0 {
		t.Fatalf("len(Result) = %d, want 0 (stale payload must not be applied)", len(vm.Result))
	}
	if vm.Page() != 0 {
		t.Fatalf("Page() = %d, want 0 (stale fetch must not advance the page)", vm.Page())
	}
	if vm.Filter() != "like" {
		t.Fatalf("Filter() = %q, want %q", vm.Filter(), "like")
	}
}

func TestSetFilterResetsPagination(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(12)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	if vm.Page() != 1 {
		t.Fatalf("Page() = %d, want 1", vm.Page())
	}

	vm.SetFilter("comment")
	if vm.Page() != 0 {
		t.Fatalf("Page() = %d after SetFilter, want 0", vm.Page())
	}

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("fetch after filter change: %v", err)
	}
	if vm.Page() != 1 {
		t.Fatalf("Page() = %d, want 1 (restarted from the first page)", vm.Page())
	}
	if vm.DeletedDocCount != 0 {
		t.Fatalf("DeletedDocCount = %d, want 0 after full refetch", vm.DeletedDocCount)
	}
}
