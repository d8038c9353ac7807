package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const studiesBody = `{
  "studies": [
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT01", "briefTitle": "Dupilumab in severe disease"},
        "descriptionModule": {"briefSummary": "A phase 3 trial in adults."},
        "conditionsModule": {"conditions": ["Atopic Dermatitis"]},
        "statusModule": {"startDateStruct": {"date": "2022-06"}}
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT02", "briefTitle": "Knee surgery recovery"},
        "descriptionModule": {"briefSummary": "Orthopedic rehabilitation study."},
        "conditionsModule": {"conditions": ["Osteoarthritis"]}
      }
    }
  ]
}`

func TestClinicalTrialsFetchUsesConditions(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studies" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(studiesBody))
	}))
	defer server.Close()

	c := NewClinicalTrials(source.NewClient(server.Client(), source.NoRetry()), server.URL, nil)

	candidates := c.Fetch(context.Background(), map[string]bool{})
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	got := candidates[0]
	if got.ID() != "ctgov_NCT01" {
		t.Fatalf("unexpected id: %s", got.ID())
	}
	// Neither title nor summary mentions a lexicon term; the trial condition
	// carries the topical signal.
	if got.Keywords[0] != "atopic dermatitis" {
		t.Fatalf("unexpected keywords: %v", got.Keywords)
	}
	if got.Year != "2022" {
		t.Fatalf("unexpected year: %q", got.Year)
	}
	if got.URL != "https://clinicaltrials.gov/study/NCT01" {
		t.Fatalf("unexpected url: %s", got.URL)
	}
}

func TestClinicalTrialsFetchSwallowsFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewClinicalTrials(source.NewClient(server.Client(), source.NoRetry()), server.URL, nil)

	if got := c.Fetch(context.Background(), map[string]bool{}); got != nil {
		t.Fatalf("expected empty result on parse failure, got %v", got)
	}
}
