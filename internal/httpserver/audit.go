package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titanaprilian/authguard/internal/search"
	"github.com/titanaprilian/authguard/internal/util"
)

type AuditHTTP struct {
	Indexer *search.AuditIndexer
}

func (h *AuditHTTP) Search(c echo.Context) error {
	if h.Indexer == nil || h.Indexer.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit search is not configured")
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	from, size := util.Calculate(queryInt(c, "page"), queryInt(c, "size"))

	total, items, err := h.Indexer.Search(c.Request().Context(), query, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "audit search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"items": items,
	})
}
