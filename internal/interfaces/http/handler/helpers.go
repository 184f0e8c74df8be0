package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/interfaces/http/dto"
)

// parseUUIDParam parses a UUID path parameter, writing a 400 response on
// failure. The bool result reports whether parsing succeeded.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(400, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeValidationFormat,
			"Invalid "+name+" parameter: must be a UUID",
			getRequestID(c),
		))
		return uuid.Nil, false
	}
	return id, true
}

// bindListFilter binds common pagination query parameters into a domain
// filter, falling back to defaults for anything unset
func bindListFilter(c *gin.Context) shared.Filter {
	var req dto.ListRequest
	_ = c.ShouldBindQuery(&req)

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter
}

// parseAsOf reads the optional as_of query parameter (RFC 3339 or
// YYYY-MM-DD), defaulting to now
func parseAsOf(c *gin.Context) (time.Time, error) {
	raw := c.Query("as_of")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
