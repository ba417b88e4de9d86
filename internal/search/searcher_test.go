package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unilink/backend/internal/models"
)

type searchReq struct {
	q      string
	filter models.DirectoryFilter
	page   int
	reply  chan searchReply
}

type searchReply struct {
	page *models.SearchPage
	err  error
}

// fakeBackend parks every request on a channel so tests control exactly when
// each response lands.
type fakeBackend struct {
	reqs chan *searchReq
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{reqs: make(chan *searchReq, 8)}
}

func (b *fakeBackend) Search(ctx context.Context, q string, filter models.DirectoryFilter, page int) (*models.SearchPage, error) {
	req := &searchReq{q: q, filter: filter, page: page, reply: make(chan searchReply, 1)}
	b.reqs <- req
	select {
	case r := <-req.reply:
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *fakeBackend) next(t *testing.T) *searchReq {
	t.Helper()
	select {
	case req := <-b.reqs:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a backend request")
		return nil
	}
}

func (b *fakeBackend) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case req := <-b.reqs:
		t.Fatalf("unexpected backend request q=%q page=%d", req.q, req.page)
	case <-time.After(d):
	}
}

func entry(id string) models.DirectoryEntry {
	return models.DirectoryEntry{PublicProfile: models.PublicProfile{UserID: id}}
}

func pageOf(hasMore bool, ids ...string) *models.SearchPage {
	p := &models.SearchPage{HasMore: hasMore}
	for _, id := range ids {
		p.Entries = append(p.Entries, entry(id))
	}
	return p
}

// waitSettled drains update snapshots until loading goes false.
func waitSettled(t *testing.T, updates chan Snapshot) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if !snap.Loading {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for the searcher to settle")
		}
	}
}

func ids(entries []models.DirectoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.UserID)
	}
	return out
}

func sameIDs(got []models.DirectoryEntry, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].UserID != want[i] {
			return false
		}
	}
	return true
}

func TestStaleResponseDiscarded(t *testing.T) {
	backend := newFakeBackend()
	updates := make(chan Snapshot, 32)
	s := New(backend, WithDebounce(time.Millisecond), WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	defer s.Stop()

	s.Refresh()
	first := backend.next(t)

	// A filter switch supersedes the in-flight request.
	s.SetFilter(models.FilterCourse)
	second := backend.next(t)

	second.reply <- searchReply{page: pageOf(false, "u-new")}
	snap := waitSettled(t, updates)
	if !sameIDs(snap.Entries, "u-new") {
		t.Fatalf("entries = %v, want [u-new]", ids(snap.Entries))
	}

	// The stale response lands afterwards and must not overwrite anything.
	first.reply <- searchReply{page: pageOf(false, "u-old")}
	time.Sleep(50 * time.Millisecond)
	if got := s.Results(); !sameIDs(got, "u-new") {
		t.Errorf("entries after stale reply = %v, want [u-new]", ids(got))
	}
}

func TestLoadMoreAppendsWithoutDuplicates(t *testing.T) {
	backend := newFakeBackend()
	updates := make(chan Snapshot, 32)
	s := New(backend, WithDebounce(time.Millisecond), WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	defer s.Stop()

	s.Refresh()
	backend.next(t).reply <- searchReply{page: pageOf(true, "u1", "u2")}
	waitSettled(t, updates)

	s.LoadMore()
	req := backend.next(t)
	if req.page != 1 {
		t.Fatalf("LoadMore requested page %d, want 1", req.page)
	}
	// The second page repeats u2; the repeat must be dropped.
	req.reply <- searchReply{page: pageOf(false, "u2", "u3")}
	snap := waitSettled(t, updates)

	if !sameIDs(snap.Entries, "u1", "u2", "u3") {
		t.Errorf("entries = %v, want [u1 u2 u3]", ids(snap.Entries))
	}
	if snap.HasMore {
		t.Error("HasMore should be false after the last page")
	}
}

func TestLoadMoreNoopWhenExhausted(t *testing.T) {
	backend := newFakeBackend()
	updates := make(chan Snapshot, 32)
	s := New(backend, WithDebounce(time.Millisecond), WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	defer s.Stop()

	s.Refresh()
	backend.next(t).reply <- searchReply{page: pageOf(false, "u1")}
	waitSettled(t, updates)

	s.LoadMore()
	backend.expectNone(t, 50*time.Millisecond)
}

func TestDebounceCollapsesKeystrokes(t *testing.T) {
	backend := newFakeBackend()
	updates := make(chan Snapshot, 32)
	s := New(backend, WithDebounce(30*time.Millisecond), WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	defer s.Stop()

	s.SetQuery("a")
	s.SetQuery("al")
	s.SetQuery("ali")

	req := backend.next(t)
	if req.q != "ali" {
		t.Fatalf("dispatched q = %q, want final keystroke", req.q)
	}
	req.reply <- searchReply{page: pageOf(false, "u1")}
	waitSettled(t, updates)

	backend.expectNone(t, 60*time.Millisecond)
}

func TestEmptyQueryDispatchesImmediately(t *testing.T) {
	backend := newFakeBackend()
	updates := make(chan Snapshot, 32)
	s := New(backend, WithDebounce(time.Hour), WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	defer s.Stop()

	// The non-empty keystroke parks behind the huge debounce.
	s.SetQuery("x")
	backend.expectNone(t, 30*time.Millisecond)

	// Clearing the box skips the debounce entirely.
	s.SetQuery("")
	req := backend.next(t)
	if req.q != "" {
		t.Fatalf("dispatched q = %q, want empty", req.q)
	}
	req.reply <- searchReply{page: pageOf(false, "u1")}
	waitSettled(t, updates)
}

func TestErrorKeepsPriorResults(t *testing.T) {
	backend := newFakeBackend()
	updates := make(chan Snapshot, 32)
	s := New(backend, WithDebounce(time.Millisecond), WithOnUpdate(func(snap Snapshot) { updates <- snap }))
	defer s.Stop()

	s.Refresh()
	backend.next(t).reply <- searchReply{page: pageOf(false, "u1")}
	waitSettled(t, updates)

	s.SetFilter(models.FilterDegree)
	backend.next(t).reply <- searchReply{err: errors.New("upstream down")}
	snap := waitSettled(t, updates)

	if snap.Err == "" {
		t.Error("snapshot should carry the error message")
	}
	if !sameIDs(snap.Entries, "u1") {
		t.Errorf("entries = %v, want prior results intact", ids(snap.Entries))
	}
}

func TestAppendDedupe(t *testing.T) {
	held := []models.DirectoryEntry{entry("a"), entry("b")}
	got := appendDedupe(held, []models.DirectoryEntry{entry("b"), entry("c"), entry("a")})
	if !sameIDs(got, "a", "b", "c") {
		t.Errorf("appendDedupe = %v, want [a b c]", ids(got))
	}
}
