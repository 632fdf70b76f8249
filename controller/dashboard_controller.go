package controller

import (
	"log"
	"net/http"
	"time"

	service "github.com/caseboard/caseboard/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DashboardController manages HTTP requests for the filter/query side of
// the dashboard.
type DashboardController struct {
	dashboard *service.DashboardService
	search    *service.SearchService
}

func NewDashboardController(dashboard *service.DashboardService, search *service.SearchService) *DashboardController {
	return &DashboardController{dashboard: dashboard, search: search}
}

// parseActionFilter collects the filter state from query parameters.
// Malformed values are dropped, not rejected: a bad uuid or date means
// "no filter" for that dimension.
func parseActionFilter(ctx *gin.Context) service.ActionFilter {
	var f service.ActionFilter

	if v := ctx.Query("company_id"); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			f.CompanyID = v
		} else {
			log.Printf("[parseActionFilter] Ignoring malformed company_id %q", v)
		}
	}
	if v := ctx.Query("industry_id"); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			f.IndustryID = v
		} else {
			log.Printf("[parseActionFilter] Ignoring malformed industry_id %q", v)
		}
	}
	f.Status = ctx.Query("status")

	if v := ctx.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = &t
		} else {
			log.Printf("[parseActionFilter] Ignoring malformed from date %q", v)
		}
	}
	if v := ctx.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			// Inclusive upper bound: cover the whole day.
			t = t.Add(24*time.Hour - time.Second)
			f.To = &t
		} else {
			log.Printf("[parseActionFilter] Ignoring malformed to date %q", v)
		}
	}

	return f
}

// GetLegalActions returns the filtered, joined action rows for the table.
func (c *DashboardController) GetLegalActions(ctx *gin.Context) {
	filter := parseActionFilter(ctx)

	actions, err := c.dashboard.GetLegalActions(filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve legal actions",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"actions": actions,
		"total":   len(actions),
	})
}

// GetFilterOptions returns the dropdown option sets.
func (c *DashboardController) GetFilterOptions(ctx *gin.Context) {
	opts, err := c.dashboard.GetFilterOptions()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve filter options",
			"details": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, opts)
}

// GetSummary returns the chart aggregates for the current filter state.
func (c *DashboardController) GetSummary(ctx *gin.Context) {
	filter := parseActionFilter(ctx)

	summary, err := c.dashboard.GetSummary(filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute summary",
			"details": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

// SearchActions runs a free-text search over the indexed actions.
func (c *DashboardController) SearchActions(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	results, err := c.search.SearchActions(query)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Search completed successfully",
		"results": results,
	})
}
