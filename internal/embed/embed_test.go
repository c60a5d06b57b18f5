package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashingIsDeterministic(t *testing.T) {
	h := NewHashing(0)
	a, err := h.Embed(context.Background(), []string{"Show my summary", "Show my summary"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(a) != 2 || len(a[0]) != DefaultHashingDim {
		t.Fatalf("unexpected shape %d x %d", len(a), len(a[0]))
	}
	if s := Cosine(a[0], a[1]); math.Abs(s-1) > 1e-9 {
		t.Fatalf("same text should have similarity 1, got %v", s)
	}
}

func TestHashingRanksRelatedTextHigher(t *testing.T) {
	h := NewHashing(0)
	v, _ := h.Embed(context.Background(), []string{
		"give me saving tips",
		"give me some saving tips please",
		"asdkj qwoeiru",
	})
	related := Cosine(v[0], v[1])
	unrelated := Cosine(v[0], v[2])
	if related <= unrelated {
		t.Fatalf("expected related > unrelated, got %v <= %v", related, unrelated)
	}
	if unrelated < 0 {
		t.Fatalf("hashing vectors are non-negative, similarity must be >= 0, got %v", unrelated)
	}
}

func TestHashingHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashing(8).Embed(ctx, []string{"x"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model != "test-model" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: "model not found"})
			return
		}
		resp := ollamaEmbedResponse{}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(i), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	o := NewOllama(srv.URL+"/", "test-model", srv.Client())
	got, err := o.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != 2 || got[1][0] != 1 {
		t.Fatalf("unexpected embeddings %v", got)
	}

	bad := NewOllama(srv.URL, "missing", srv.Client())
	if _, err := bad.Embed(context.Background(), []string{"a"}); err == nil || err.Error() != "ollama embed: model not found" {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Options{Provider: "word2vec"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
