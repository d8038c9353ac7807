package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const reporterBody = `{
  "results": [
    {
      "appl_id": 10893311,
      "project_title": "Mechanisms of peanut allergy desensitization",
      "abstract_text": "This project studies oral immunotherapy for peanut allergy.",
      "fiscal_year": 2024
    },
    {
      "appl_id": 10893312,
      "project_title": "Quantum sensor fabrication",
      "abstract_text": "Materials science methods.",
      "fiscal_year": 2024
    }
  ]
}`

func TestReporterFetchMapsProjects(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/projects/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Criteria struct {
				AdvancedTextSearch struct {
					SearchText string `json:"search_text"`
				} `json:"advanced_text_search"`
			} `json:"criteria"`
			Limit int `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Criteria.AdvancedTextSearch.SearchText != "allergy asthma" || payload.Limit != 15 {
			t.Errorf("unexpected payload: %+v", payload)
		}
		_, _ = w.Write([]byte(reporterBody))
	}))
	defer server.Close()

	rep := NewReporter(source.NewClient(server.Client(), source.NoRetry()), server.URL, nil)

	candidates := rep.Fetch(context.Background(), map[string]bool{})
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	got := candidates[0]
	if got.ID() != "nihreporter_10893311" {
		t.Fatalf("unexpected id: %s", got.ID())
	}
	if got.Year != "2024" {
		t.Fatalf("unexpected year: %q", got.Year)
	}
	if got.URL != "https://reporter.nih.gov/project-details/10893311" {
		t.Fatalf("unexpected url: %s", got.URL)
	}
	if got.Keywords[0] != "allergy" {
		t.Fatalf("unexpected keywords: %v", got.Keywords)
	}
}

func TestReporterFetchSwallowsFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rep := NewReporter(source.NewClient(server.Client(), source.NoRetry()), server.URL, nil)

	if got := rep.Fetch(context.Background(), map[string]bool{}); got != nil {
		t.Fatalf("expected empty result on server failure, got %v", got)
	}
}
