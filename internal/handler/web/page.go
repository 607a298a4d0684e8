package web

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static/validator.html
var validatorPage []byte

// ValidatorPage serves the point-of-sale page. A codigo query parameter
// prefills the form, which is how scanned QR links land here.
func ValidatorPage(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", validatorPage)
}
