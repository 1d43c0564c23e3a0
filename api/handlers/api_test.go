package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var a App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_ReportRouteUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("POST", "/api/v1/report", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_VoteRouteUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("POST", "/api/v1/report/1234/vote", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_ReportsListUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/v1/reports", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_ArticleCreateUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("POST", "/api/v1/article", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestGetLimitDefaults(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/articles", nil)
	if got := getLimit(req, 12); got != 12 {
		t.Errorf("Expected default limit 12. Got %d", got)
	}

	req, _ = http.NewRequest("GET", "/api/v1/articles?limit=5", nil)
	if got := getLimit(req, 12); got != 5 {
		t.Errorf("Expected limit 5. Got %d", got)
	}

	req, _ = http.NewRequest("GET", "/api/v1/articles?limit=abc", nil)
	if got := getLimit(req, 12); got != 12 {
		t.Errorf("Expected fallback limit 12. Got %d", got)
	}
}

func TestGetPageDefaults(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/articles", nil)
	if got := getPage(req); got != 0 {
		t.Errorf("Expected default page 0. Got %d", got)
	}

	req, _ = http.NewRequest("GET", "/api/v1/articles?page=3", nil)
	if got := getPage(req); got != 3 {
		t.Errorf("Expected page 3. Got %d", got)
	}
}
