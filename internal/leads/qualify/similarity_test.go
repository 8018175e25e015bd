package qualify

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"leadqual_backend/platform/ai/embeddings"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposed", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched length", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := float64(cosineSimilarity(tc.a, tc.b))
			if math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("cosineSimilarity = %v, want %v", got, tc.want)
			}
		})
	}
}

// embeddingServer returns a fixed vector per known phrase so similarity
// outcomes are deterministic.
func embeddingServer(t *testing.T, vectors map[string][]float32, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		vec, ok := vectors[req.Text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"vector": vec})
	}))
}

func TestEmbeddingSimilarityCompare(t *testing.T) {
	var calls atomic.Int64
	srv := embeddingServer(t, map[string][]float32{
		"ready to join":  {1, 0, 0},
		"want to enroll": {0.9, 0.1, 0},
		"just browsing":  {0, 1, 0},
		"not interested": {-0.2, 0.9, 0},
	}, &calls)
	defer srv.Close()

	sim := NewEmbeddingSimilarity(embeddings.NewClient(embeddings.Config{BaseURL: srv.URL}))

	got, err := sim.Compare(context.Background(), "ready to join",
		[]string{"want to enroll"}, []string{"just browsing", "not interested"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if got.MaxPositive < 0.9 {
		t.Fatalf("MaxPositive = %v, want aligned vectors to score above 0.9", got.MaxPositive)
	}
	if got.MaxNegative > 0.1 {
		t.Fatalf("MaxNegative = %v, want near-orthogonal vectors to score near 0", got.MaxNegative)
	}
}

func TestEmbeddingSimilarityCachesSeeds(t *testing.T) {
	var calls atomic.Int64
	srv := embeddingServer(t, map[string][]float32{}, &calls)
	defer srv.Close()

	sim := NewEmbeddingSimilarity(embeddings.NewClient(embeddings.Config{BaseURL: srv.URL}))

	positive := []string{"seed one", "seed two"}
	negative := []string{"seed three"}
	if _, err := sim.Compare(context.Background(), "first text", positive, negative); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	first := calls.Load() // 1 text + 3 seeds

	if _, err := sim.Compare(context.Background(), "second text", positive, negative); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	second := calls.Load() - first

	if first != 4 {
		t.Fatalf("first compare made %d requests, want 4", first)
	}
	if second != 1 {
		t.Fatalf("second compare made %d requests, want only the text embedding", second)
	}
}
