package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"hooksink/pkg/logger"
)

func TestLoggingMiddlewareCarriesContextFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	l := &logger.Logger{Logger: zap.New(core)}

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(l))
	r.GET("/x", func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), logger.TenantKeyKey, "acme")
		c.Request = c.Request.WithContext(ctx)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-42" {
		t.Fatalf("request_id field = %v", fields["request_id"])
	}
	if fields["tenant_key"] != "acme" {
		t.Fatalf("tenant_key field = %v", fields["tenant_key"])
	}
	if fields["status"] != int64(http.StatusNoContent) {
		t.Fatalf("status field = %v", fields["status"])
	}
	if fields["path"] != "/x" {
		t.Fatalf("path field = %v", fields["path"])
	}
}

func TestLoggingMiddlewareNilLoggerIsSafe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(LoggingMiddleware(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
