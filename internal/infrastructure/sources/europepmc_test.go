package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const europePMCBody = `{
  "resultList": {
    "result": [
      {
        "id": "38011111",
        "source": "MED",
        "title": "Pollen exposure and allergic rhinitis in children",
        "abstractText": "A cohort study of pollen counts and allergic rhinitis symptoms.",
        "pubYear": "2024"
      },
      {
        "id": "38022222",
        "source": "PPR",
        "title": "Bridge load modelling",
        "abstractText": "Structural engineering methods.",
        "pubYear": "2024"
      }
    ]
  }
}`

func TestEuropePMCFetchMapsResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("resultType") != "core" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(europePMCBody))
	}))
	defer server.Close()

	e := NewEuropePMC(source.NewClient(server.Client(), source.NoRetry()), server.URL, nil)

	candidates := e.Fetch(context.Background(), map[string]bool{})
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	got := candidates[0]
	if got.ID() != "europepmc_38011111" {
		t.Fatalf("unexpected id: %s", got.ID())
	}
	if got.URL != "https://europepmc.org/article/MED/38011111" {
		t.Fatalf("unexpected url: %s", got.URL)
	}
	if got.Keywords[0] != "allergic rhinitis" {
		t.Fatalf("unexpected keywords: %v", got.Keywords)
	}
}

func TestEuropePMCFetchSkipsExisting(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(europePMCBody))
	}))
	defer server.Close()

	e := NewEuropePMC(source.NewClient(server.Client(), source.NoRetry()), server.URL, nil)

	existing := map[string]bool{"europepmc_38011111": true}
	if got := e.Fetch(context.Background(), existing); got != nil {
		t.Fatalf("expected no candidates, got %v", got)
	}
}
