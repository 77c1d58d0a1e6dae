package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	// Empty database means nobody is signed in.
	rec, err := s.LoadSession()
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatalf("expected nil session, got %+v", rec)
	}

	if err := s.SaveSession(SessionRecord{
		UserID:       "u-1",
		Email:        "u@example.com",
		IDToken:      "id-tok",
		AccessToken:  "acc-tok",
		RefreshToken: "ref-tok",
	}); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	rec, err = s.LoadSession()
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.UserID != "u-1" || rec.IDToken != "id-tok" {
		t.Fatalf("unexpected session record: %+v", rec)
	}

	// Saving again overwrites the single row.
	if err := s.SaveSession(SessionRecord{UserID: "u-2", Email: "x@example.com",
		IDToken: "new", AccessToken: "new", RefreshToken: "new"}); err != nil {
		t.Fatal(err)
	}
	rec, _ = s.LoadSession()
	if rec.UserID != "u-2" || rec.IDToken != "new" {
		t.Fatalf("upsert did not replace the session: %+v", rec)
	}

	if err := s.ClearSession(); err != nil {
		t.Fatal(err)
	}
	rec, _ = s.LoadSession()
	if rec != nil {
		t.Fatalf("session should be gone after clear, got %+v", rec)
	}
}

func TestDropLifecycle(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	if err := s.AddOrUpdateDrop("/drop/fuji.jpg", 1024, now); err != nil {
		t.Fatalf("AddOrUpdateDrop failed: %v", err)
	}

	pending, err := s.GetPendingDrops(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Status != DropPending {
		t.Fatalf("expected one pending drop, got %+v", pending)
	}

	if err := s.MarkDropUploaded("/drop/fuji.jpg", "puzzle-1", "01ATTEMPT"); err != nil {
		t.Fatalf("MarkDropUploaded failed: %v", err)
	}

	pending, _ = s.GetPendingDrops(10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending drops, got %+v", pending)
	}

	uploaded, err := s.GetPruneCandidates(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(uploaded) != 1 {
		t.Fatalf("expected one prune candidate, got %d", len(uploaded))
	}
	d := uploaded[0]
	if d.PuzzleID.String != "puzzle-1" || d.AttemptID.String != "01ATTEMPT" {
		t.Errorf("upload metadata not recorded: %+v", d)
	}
	if !d.UploadedAt.Valid {
		t.Error("uploaded_at should be set")
	}

	// A re-modified file goes back to PENDING so it is uploaded again.
	if err := s.AddOrUpdateDrop("/drop/fuji.jpg", 2048, now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	pending, _ = s.GetPendingDrops(10)
	if len(pending) != 1 || pending[0].Size != 2048 {
		t.Fatalf("modified file should be pending again, got %+v", pending)
	}

	if err := s.RemoveDrop("/drop/fuji.jpg"); err != nil {
		t.Fatal(err)
	}
	pending, _ = s.GetPendingDrops(10)
	if len(pending) != 0 {
		t.Fatalf("expected no drops after removal, got %+v", pending)
	}
}

func TestPendingDropsOrderedOldestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now()

	s.AddOrUpdateDrop("/drop/new.jpg", 1, base.Add(2*time.Hour))
	s.AddOrUpdateDrop("/drop/old.jpg", 1, base)
	s.AddOrUpdateDrop("/drop/mid.jpg", 1, base.Add(time.Hour))

	pending, err := s.GetPendingDrops(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 drops, got %d", len(pending))
	}
	want := []string{"/drop/old.jpg", "/drop/mid.jpg", "/drop/new.jpg"}
	for i, p := range pending {
		if p.Path != want[i] {
			t.Errorf("position %d: got %s, want %s", i, p.Path, want[i])
		}
	}

	// The limit caps the batch.
	pending, _ = s.GetPendingDrops(2)
	if len(pending) != 2 {
		t.Errorf("expected 2 drops with limit 2, got %d", len(pending))
	}
}

func TestGetTotalDropSize(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	size, err := s.GetTotalDropSize()
	if err != nil || size != 0 {
		t.Fatalf("empty store: size=%d err=%v", size, err)
	}

	s.AddOrUpdateDrop("/drop/a.jpg", 100, now)
	s.AddOrUpdateDrop("/drop/b.jpg", 250, now)
	s.MarkDropUploaded("/drop/a.jpg", "p-1", "at-1")

	// Both pending and uploaded files count toward the cap.
	size, err = s.GetTotalDropSize()
	if err != nil {
		t.Fatal(err)
	}
	if size != 350 {
		t.Errorf("expected total 350, got %d", size)
	}
}
