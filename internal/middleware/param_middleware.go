package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam валидирует числовой параметр пути и кладет его в
// контекст Gin под заданным ключом. Маршруты тестов, вопросов и
// попыток используют серийные ID, поэтому ноль тоже отклоняется.
func ExtractUintParam(param, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := strconv.ParseUint(c.Param(param), 10, 32)
		if err != nil || value == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Некорректный параметр %s", param)})
			c.Abort()
			return
		}
		c.Set(contextKey, uint(value))
		c.Next()
	}
}
