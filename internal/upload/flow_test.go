package upload

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"puzzle-helper/internal/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake image bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testBackend records every request hitting the API or the storage endpoint,
// in order, so tests can assert which phases ran.
type testBackend struct {
	t     *testing.T
	calls []string

	grantStatus    int
	storageStatus  int
	putBody        []byte
	putContentType string
}

func newTestBackend(t *testing.T) (*testBackend, *api.Client, func()) {
	b := &testBackend{t: t, grantStatus: http.StatusOK, storageStatus: http.StatusOK}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/puzzles/test-123/upload":
			b.calls = append(b.calls, "grant")
			if b.grantStatus != http.StatusOK {
				http.Error(w, "grant refused", b.grantStatus)
				return
			}
			json.NewEncoder(w).Encode(api.Grant{
				PuzzleID:  "test-123",
				UploadURL: "http://" + r.Host + "/storage/test-123",
				ExpiresIn: 3600,
			})

		case r.Method == http.MethodPut && r.URL.Path == "/storage/test-123":
			b.calls = append(b.calls, "put")
			b.putBody, _ = io.ReadAll(r.Body)
			b.putContentType = r.Header.Get("Content-Type")
			w.WriteHeader(b.storageStatus)

		case r.Method == http.MethodGet && r.URL.Path == "/puzzles/test-123":
			b.calls = append(b.calls, "refetch")
			json.NewEncoder(w).Encode(api.Puzzle{
				PuzzleID: "test-123",
				Status:   api.StatusUploaded,
				S3Key:    "uploads/test-123/fuji.jpg",
			})

		default:
			b.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	return b, api.NewClient(server.URL, "5s"), server.Close
}

func TestRunNoFileMakesNoNetworkCalls(t *testing.T) {
	backend, client, done := newTestBackend(t)
	defer done()

	flow := NewFlow(client, testLogger())

	cases := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.jpg")},
		{"directory", t.TempDir()},
		{"not an image", func() string {
			p := filepath.Join(t.TempDir(), "notes.txt")
			os.WriteFile(p, []byte("text"), 0644)
			return p
		}()},
	}

	for _, tc := range cases {
		_, err := flow.Run(t.Context(), "test-123", "test-user", tc.path)
		if !errors.Is(err, ErrNoFile) {
			t.Errorf("%s: expected ErrNoFile, got %v", tc.name, err)
		}
		if flow.State() != StateNoFile {
			t.Errorf("%s: expected StateNoFile, got %v", tc.name, flow.State())
		}
	}

	if len(backend.calls) != 0 {
		t.Errorf("expected zero network calls, got %v", backend.calls)
	}
}

func TestRunSuccess(t *testing.T) {
	backend, client, done := newTestBackend(t)
	defer done()

	imgPath := writeImage(t, "fuji.jpg")
	flow := NewFlow(client, testLogger())

	puzzle, err := flow.Run(t.Context(), "test-123", "test-user", imgPath)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Exactly one grant request, one PUT to the granted URL, one re-fetch,
	// in that order.
	want := []string{"grant", "put", "refetch"}
	if len(backend.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, backend.calls)
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, backend.calls)
		}
	}

	if string(backend.putBody) != "fake image bytes" {
		t.Errorf("storage received wrong body: %q", backend.putBody)
	}
	if backend.putContentType != "image/jpeg" {
		t.Errorf("expected content type image/jpeg, got %q", backend.putContentType)
	}

	if flow.State() != StateSucceeded {
		t.Errorf("expected StateSucceeded, got %v", flow.State())
	}
	if flow.AttemptID() == "" {
		t.Error("expected a non-empty attempt id")
	}
	if puzzle.Status != api.StatusUploaded {
		t.Errorf("expected refreshed status uploaded, got %v", puzzle.Status)
	}
}

func TestRunGrantFailureAborts(t *testing.T) {
	backend, client, done := newTestBackend(t)
	defer done()
	backend.grantStatus = http.StatusForbidden

	flow := NewFlow(client, testLogger())
	_, err := flow.Run(t.Context(), "test-123", "test-user", writeImage(t, "fuji.jpg"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if flow.State() != StateFailed {
		t.Errorf("expected StateFailed, got %v", flow.State())
	}

	// Phase 1 failed, so neither the PUT nor the re-fetch may run.
	if len(backend.calls) != 1 || backend.calls[0] != "grant" {
		t.Errorf("expected only the grant call, got %v", backend.calls)
	}
}

func TestRunTransferFailureAborts(t *testing.T) {
	backend, client, done := newTestBackend(t)
	defer done()
	backend.storageStatus = http.StatusForbidden // expired grant

	flow := NewFlow(client, testLogger())
	_, err := flow.Run(t.Context(), "test-123", "test-user", writeImage(t, "fuji.jpg"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if flow.State() != StateFailed {
		t.Errorf("expected StateFailed, got %v", flow.State())
	}

	if len(backend.calls) != 2 || backend.calls[1] != "put" {
		t.Errorf("expected grant+put only, got %v", backend.calls)
	}
}

func TestAttemptIDChangesPerRun(t *testing.T) {
	_, client, done := newTestBackend(t)
	defer done()

	imgPath := writeImage(t, "fuji.jpg")
	flow := NewFlow(client, testLogger())

	if _, err := flow.Run(t.Context(), "test-123", "test-user", imgPath); err != nil {
		t.Fatal(err)
	}
	first := flow.AttemptID()

	if _, err := flow.Run(t.Context(), "test-123", "test-user", imgPath); err != nil {
		t.Fatal(err)
	}
	if flow.AttemptID() == first {
		t.Error("expected a fresh attempt id on the second run")
	}
}
