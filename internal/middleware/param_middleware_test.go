package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tests/:id", ExtractUintParam("id", "testID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"test_id": c.GetUint("testID")})
	})
	return r
}

func TestExtractUintParam_ValidID(t *testing.T) {
	r := paramRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tests/42", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"test_id":42`)
}

func TestExtractUintParam_RejectsBadValues(t *testing.T) {
	r := paramRouter()

	for _, raw := range []string{"abc", "-1", "0", "4294967296"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tests/"+raw, nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "параметр %q должен отклоняться", raw)
	}
}
