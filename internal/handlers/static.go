package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// ServeClient serves the single-page client from staticDir. Unknown paths
// fall back to index.html so client-side routes survive a reload; unknown
// /api paths stay JSON 404s.
func ServeClient(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || path == "/api" {
		respondMessage(c, http.StatusNotFound, "Endpoint not found")
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		respondMessage(c, http.StatusNotFound, "Not found")
		return
	}

	file := filepath.Join(staticDir, filepath.Clean("/"+path))
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		c.File(file)
		return
	}
	index := filepath.Join(staticDir, "index.html")
	if _, err := os.Stat(index); err == nil {
		c.File(index)
		return
	}
	respondMessage(c, http.StatusNotFound, "Not found")
}
