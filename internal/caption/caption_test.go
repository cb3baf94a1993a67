package caption

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func samplePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func newVisionServer(t *testing.T, answer string, status int, seen *chatRequest, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			if err := json.Unmarshal(body, seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		payload := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": answer}, "finish_reason": "stop"}},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func TestClientCaptionReturnsNormalizedLabel(t *testing.T) {
	var seen chatRequest
	var calls atomic.Int32
	srv := newVisionServer(t, "Dog.", http.StatusOK, &seen, &calls)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/", Model: "vision-test", MaxWidth: 32})
	label, ok := client.Caption(context.Background(), samplePNG(t, 64, 16))
	if !ok || label != "dog" {
		t.Fatalf("expected dog, got %q ok=%v", label, ok)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", calls.Load())
	}
	if seen.Model != "vision-test" {
		t.Fatalf("unexpected model %q", seen.Model)
	}
	if len(seen.Messages) != 1 || len(seen.Messages[0].Content) != 2 {
		t.Fatalf("unexpected message shape %+v", seen.Messages)
	}
	parts := seen.Messages[0].Content
	if parts[0].Text != defaultPrompt {
		t.Fatalf("unexpected prompt %q", parts[0].Text)
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,") {
		t.Fatalf("expected jpeg data url, got %.40q", parts[1].ImageURL.URL)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,"))
	if err != nil {
		t.Fatalf("decode data url: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode uploaded jpeg: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 8 {
		t.Fatalf("expected 32x8 upload, got %v", img.Bounds())
	}
}

func TestClientCaptionDegradesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := newVisionServer(t, "", http.StatusInternalServerError, nil, &calls)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if label, ok := client.Caption(context.Background(), samplePNG(t, 4, 4)); ok {
		t.Fatalf("expected no caption, got %q", label)
	}
}

func TestClientCaptionRejectsEmptyAnswer(t *testing.T) {
	var calls atomic.Int32
	srv := newVisionServer(t, "  ...  ", http.StatusOK, nil, &calls)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if label, ok := client.Caption(context.Background(), samplePNG(t, 4, 4)); ok {
		t.Fatalf("expected no caption, got %q", label)
	}
}

func TestClientWithoutKeyNeverCallsServer(t *testing.T) {
	var calls atomic.Int32
	srv := newVisionServer(t, "dog", http.StatusOK, nil, &calls)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	if _, ok := client.Caption(context.Background(), samplePNG(t, 4, 4)); ok {
		t.Fatal("expected no caption without API key")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no requests, got %d", calls.Load())
	}
}

func TestClientUndecodableImage(t *testing.T) {
	var calls atomic.Int32
	srv := newVisionServer(t, "dog", http.StatusOK, nil, &calls)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if _, ok := client.Caption(context.Background(), []byte("not an image")); ok {
		t.Fatal("expected no caption for corrupt image")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no requests for corrupt image, got %d", calls.Load())
	}
}

func TestPrepareImageKeepsSmallImages(t *testing.T) {
	out, err := prepareImage(samplePNG(t, 10, 20), 100, 90)
	if err != nil {
		t.Fatalf("prepareImage: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"Dog", "dog", true},
		{"  Mountain landscape.", "mountain", true},
		{"\"ÉCOLE\"", "école", true},
		{"Others", "others", true},
		{"../..", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := NormalizeLabel(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("NormalizeLabel(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestFuncAndNop(t *testing.T) {
	f := Func(func(context.Context, []byte) (string, bool) { return "Cat!", true })
	if label, ok := f.Caption(context.Background(), nil); !ok || label != "cat" {
		t.Fatalf("unexpected %q %v", label, ok)
	}
	if _, ok := (Nop{}).Caption(context.Background(), []byte("x")); ok {
		t.Fatal("Nop must never caption")
	}
}
