package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestUploadHandler_NilServiceReturnsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// main wires a nil service when S3 is not configured; the handler must
	// answer 503 instead of dereferencing it.
	h := NewUploadHandler(nil)
	router := gin.New()
	router.POST("/v1/storefront/uploads", h.Upload)

	req := httptest.NewRequest(http.MethodPost, "/v1/storefront/uploads", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPLOADS_DISABLED")
}
