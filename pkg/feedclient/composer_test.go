package feedclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestReplyComposerSubmit(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(5)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}

	rc := NewReplyComposer(vm, 1)
	rc.Toggle()
	if !rc.Replying {
		t.Fatal("composer not open after Toggle")
	}

	rc.Text = "   "
	if err := rc.Submit(context.Background()); err != ErrEmptyReply {
		t.Fatalf("blank submit error = %v, want ErrEmptyReply", err)
	}
	if !rc.Replying {
		t.Fatal("composer closed after rejected blank submit")
	}

	rc.Text = "thanks for the note"
	if err := rc.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if rc.Replying {
		t.Fatal("composer still open after successful submit")
	}
	if rc.Text != "" {
		t.Fatalf("draft = %q, want cleared", rc.Text)
	}
	reply := vm.Result[1].Reply
	if reply == nil {
		t.Fatal("reply not attached to the entry it was composed from")
	}
	if reply.Comment != "thanks for the note" {
		t.Fatalf("attached reply body = %q, want the submitted text", reply.Comment)
	}
}

func TestReplyComposerSubmitFailureKeepsDraft(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(5)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	// Entry without a comment reference cannot be replied to.
	vm.Result[2].Comment = nil

	rc := NewReplyComposer(vm, 2)
	rc.Toggle()
	rc.Text = "orphan reply"
	if err := rc.Submit(context.Background()); err == nil {
		t.Fatal("Submit succeeded with no comment to reply to")
	}
	if !rc.Replying || rc.Text != "orphan reply" {
		t.Fatalf("composer state lost on failure: replying=%v text=%q", rc.Replying, rc.Text)
	}
	if vm.Result[2].Reply != nil {
		t.Fatal("reply attached despite failed submit")
	}
}

func TestBadgePollerKeepsValueOnError(t *testing.T) {
	srv := &feedServer{}
	srv.seedComments(3)

	vm := newTestViewModel(t, srv)
	poller := NewBadgePoller(vm.client)

	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !poller.Available {
		t.Fatal("Available = false with unseen notifications on the server")
	}

	// A failing poll keeps the last known state.
	broken := NewBadgePoller(NewClient("http://127.0.0.1:0", "test-token"))
	broken.Available = true
	if err := broken.Poll(context.Background()); err == nil {
		t.Fatal("Poll against unreachable server succeeded")
	}
	if !broken.Available {
		t.Fatal("Available reset by a failed poll")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	srv := &feedServer{failDelete: true}
	srv.seedComments(3)
	vm := newTestViewModel(t, srv)

	if err := vm.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}

	err := vm.DeleteComment(context.Background(), 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "delete failed" {
		t.Fatalf("APIError = %+v, want 500 %q", apiErr, "delete failed")
	}
}
