package integration

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// fixturePath returns the path of a file under test/fixtures.
func fixturePath(name string) string {
	return filepath.Join("..", "fixtures", name)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	content, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	return content
}

// serveFixture answers every search request with the recorded response.
func serveFixture(t *testing.T, name string) *httptest.Server {
	t.Helper()

	body := readFixture(t, name)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/everything" {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv
}
