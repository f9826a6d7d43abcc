package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(rps, burst).Handle())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doPing(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterBlocksBurstOverflow(t *testing.T) {
	router := newLimitedRouter(1, 2)

	if code := doPing(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", code)
	}
	if code := doPing(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("second request status = %d, want 200", code)
	}
	if code := doPing(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", code)
	}
}

func TestRateLimiterIsPerClient(t *testing.T) {
	router := newLimitedRouter(1, 1)

	if code := doPing(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first client status = %d, want 200", code)
	}
	if code := doPing(router, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("second client status = %d, want 200", code)
	}
	if code := doPing(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("exhausted client status = %d, want 429", code)
	}
}
