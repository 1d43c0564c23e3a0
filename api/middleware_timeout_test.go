package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutMiddleware_FastHandlerPassesThrough(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	TimeoutMiddleware(time.Second)(fast).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestTimeoutMiddleware_SlowHandlerGetsTimeoutResponse(t *testing.T) {
	handlerDone := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("late"))
		close(handlerDone)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	TimeoutMiddleware(20*time.Millisecond)(slow).ServeHTTP(rr, req)

	// wait for the handler's late write attempt before inspecting the response
	<-handlerDone

	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.Equal(t, `{"error": "request timeout"}`, rr.Body.String())
}

func TestTimeoutMiddleware_HandlerResponseWinsIfAlreadyWritten(t *testing.T) {
	started := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("partial"))
		time.Sleep(200 * time.Millisecond)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	TimeoutMiddleware(20*time.Millisecond)(started).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}
