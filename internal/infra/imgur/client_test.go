package imgur

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAlbumImages(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		wantErr    bool
		wantImages map[string]string
	}{
		{
			name: "images returned",
			response: `{
				"data": [
					{"id": "i1", "title": "key1", "link": "https://i.imgur.com/i1.jpg"},
					{"id": "i2", "title": "key2", "link": "https://i.imgur.com/i2.jpg"},
					{"id": "i3", "title": "", "link": "https://i.imgur.com/i3.jpg"}
				],
				"success": true,
				"status": 200
			}`,
			statusCode: http.StatusOK,
			wantImages: map[string]string{
				"key1": "https://i.imgur.com/i1.jpg",
				"key2": "https://i.imgur.com/i2.jpg",
			},
		},
		{
			name:       "empty album",
			response:   `{"data": [], "success": true, "status": 200}`,
			statusCode: http.StatusOK,
			wantImages: map[string]string{},
		},
		{
			name:       "album missing",
			response:   `{"data": {"error": "Unable to find album"}, "success": false, "status": 404}`,
			statusCode: http.StatusNotFound,
			wantErr:    true,
		},
		{
			name:       "api failure envelope",
			response:   `{"data": {"error": "boom"}, "success": false, "status": 500}`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Client-ID test-id" {
					t.Errorf("missing auth header, got %q", got)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient("test-id", WithBaseURL(server.URL))
			images, err := client.AlbumImages(context.Background(), "album1")

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(images) != len(tt.wantImages) {
				t.Fatalf("got %d images, want %d", len(images), len(tt.wantImages))
			}
			for title, link := range tt.wantImages {
				if images[title] != link {
					t.Errorf("image %q = %q, want %q", title, images[title], link)
				}
			}
		})
	}
}

func TestAlbumImagesNotFoundSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success": false, "status": 404}`))
	}))
	defer server.Close()

	client := NewClient("test-id", WithBaseURL(server.URL))
	_, err := client.AlbumImages(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAlbum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("title"); got == "" {
			t.Error("expected album title in form")
		}
		w.Write([]byte(`{"data": {"id": "alb1", "deletehash": "delhash1"}, "success": true, "status": 200}`))
	}))
	defer server.Close()

	client := NewClient("test-id", WithBaseURL(server.URL))
	id, hash, err := client.CreateAlbum(context.Background(), "Covers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "alb1" || hash != "delhash1" {
		t.Errorf("got %q/%q", id, hash)
	}
}

func TestUploadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.MultipartForm.Value["title"]; len(got) != 1 || got[0] != "key1" {
			t.Errorf("title = %v", got)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			t.Errorf("image file: %v", err)
		} else {
			file.Close()
		}
		w.Write([]byte(`{"data": {"id": "i1", "link": "https://i.imgur.com/i1.jpg", "deletehash": "imgdel1"}, "success": true, "status": 200}`))
	}))
	defer server.Close()

	client := NewClient("test-id", WithBaseURL(server.URL))
	link, hash, err := client.UploadImage(context.Background(), []byte("imagebytes"), "key1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link != "https://i.imgur.com/i1.jpg" || hash != "imgdel1" {
		t.Errorf("got %q/%q", link, hash)
	}
}

func TestAddToAlbum(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("deletehashes[]"); got != "imgdel1" {
			t.Errorf("deletehashes = %q", got)
		}
		w.Write([]byte(`{"data": true, "success": true, "status": 200}`))
	}))
	defer server.Close()

	client := NewClient("test-id", WithBaseURL(server.URL))
	if err := client.AddToAlbum(context.Background(), "albdel1", "imgdel1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/album/albdel1/add" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestRateLimitedSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success": false, "status": 429}`))
	}))
	defer server.Close()

	client := NewClient("test-id", WithBaseURL(server.URL))
	_, err := client.AlbumImages(context.Background(), "a")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}
