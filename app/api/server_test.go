package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/sites"
)

type listingRepoStub struct {
	database.ListingRepository
	count int
}

func (s *listingRepoStub) GetListingCount() (int, error) { return s.count, nil }

type siteRepoStub struct {
	database.SiteRepository
	count int
}

func (s *siteRepoStub) GetSiteCount() (int, error) { return s.count, nil }

type cacheStub struct {
	proxyConfigured bool
}

func (s *cacheStub) ClearMemoryCache()     {}
func (s *cacheStub) ProxyConfigured() bool { return s.proxyConfigured }

func newHealthHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(sites.NewConfigCache(t.TempDir()),
		&listingRepoStub{count: 7}, nil, nil, nil, &siteRepoStub{count: 4},
		nil, &cacheStub{proxyConfigured: true}, nil)
}

func TestHealthEndpointPaths(t *testing.T) {
	engine := NewServer(newHealthHandler(t), "")

	// Both the bare path and the /api-prefixed alias answer.
	for _, path := range []string{"/health", "/api/health"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		engine.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 for %s, got %d", path, w.Code)
			continue
		}

		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["status"] != "OK" {
			t.Errorf("Expected status OK for %s, got %v", path, body["status"])
		}
		if body["scraper_api_configured"] != true {
			t.Errorf("Expected scraper_api_configured true for %s", path)
		}
		if body["listings"] != float64(7) {
			t.Errorf("Expected 7 listings for %s, got %v", path, body["listings"])
		}
	}
}

func TestHealthSkipsAuth(t *testing.T) {
	engine := NewServer(newHealthHandler(t), "secret-key")

	// Probes hit /api/health without credentials; it must stay open even when
	// the rest of the /api surface requires a key.
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for unauthenticated /api/health, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/listings", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unauthenticated /api/listings, got %d", w.Code)
	}
}
