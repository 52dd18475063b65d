package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/academic"
	"github.com/noah-isme/academic-planner-api/internal/middleware"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

// currentUser resolves the authenticated user id, writing a 401 when missing.
func currentUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return true
}

// dateRange reads the optional from/to query parameters.
func dateRange(c *gin.Context) (models.DateRange, bool) {
	var rng models.DateRange
	bounds := []struct {
		key  string
		dest **time.Time
	}{{"from", &rng.From}, {"to", &rng.To}}
	for _, b := range bounds {
		raw := strings.TrimSpace(c.Query(b.key))
		if raw == "" {
			continue
		}
		parsed, err := academic.ParseDay(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+b.key+" date, expected YYYY-MM-DD"))
			return rng, false
		}
		*b.dest = &parsed
	}
	return rng, true
}
