package discogs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchCoverImage(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		wantURL    string
		wantErr    bool
	}{
		{
			name: "first result cover image",
			response: `{
				"results": [
					{"id": 1, "title": "Artist - Album", "cover_image": "https://img.discogs.com/1.jpg", "thumb": "https://img.discogs.com/1-thumb.jpg"},
					{"id": 2, "title": "Artist - Album (Deluxe)", "cover_image": "https://img.discogs.com/2.jpg"}
				]
			}`,
			statusCode: http.StatusOK,
			wantURL:    "https://img.discogs.com/1.jpg",
		},
		{
			name: "thumb fallback when cover missing",
			response: `{
				"results": [
					{"id": 1, "title": "Artist - Album", "thumb": "https://img.discogs.com/1-thumb.jpg"}
				]
			}`,
			statusCode: http.StatusOK,
			wantURL:    "https://img.discogs.com/1-thumb.jpg",
		},
		{
			name:       "no results",
			response:   `{"results": []}`,
			statusCode: http.StatusOK,
			wantURL:    "",
		},
		{
			name:       "server error",
			response:   `{"message": "internal error"}`,
			statusCode: http.StatusInternalServerError,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Discogs token=test-token" {
					t.Errorf("auth header = %q", got)
				}
				if got := r.Header.Get("User-Agent"); got == "" {
					t.Error("missing User-Agent header")
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient("test-token", WithBaseURL(server.URL))
			url, err := client.SearchCoverImage(context.Background(), "Artist", "Album", "Track")

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if url != tt.wantURL {
				t.Errorf("url = %q, want %q", url, tt.wantURL)
			}
		})
	}
}

func TestSearchQueryParameters(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := NewClient("test-token", WithBaseURL(server.URL))
	if _, err := client.SearchCoverImage(context.Background(), "Artist A", "Best Of", "Hit Song"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := map[string]string{
		"artist":        "Artist A",
		"track":         "Hit Song",
		"release_title": "Best Of",
	}
	for key, want := range checks {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %q = %v, want %q", key, got, want)
		}
	}
}

func TestSearchOmitsEmptyAlbum(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := NewClient("test-token", WithBaseURL(server.URL))
	if _, err := client.SearchCoverImage(context.Background(), "Artist", "", "Track"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := gotQuery["release_title"]; present {
		t.Error("release_title should be omitted when album is empty")
	}
}

func TestSearchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "rate limit"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", WithBaseURL(server.URL))
	_, err := client.SearchCoverImage(context.Background(), "Artist", "Album", "Track")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}
