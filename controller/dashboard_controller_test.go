package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caseboard/caseboard/models"
	service "github.com/caseboard/caseboard/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newControllerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.Industry{},
		&models.LegalAction{},
		&models.User{},
		&models.LoginMagicLink{},
	))
	return db
}

// seedActions inserts one company/industry pair and three actions with
// known statuses and dates.
func seedActions(t *testing.T, db *gorm.DB) (models.Company, models.Industry) {
	t.Helper()

	company := models.Company{Name: "Acme Chemicals"}
	industry := models.Industry{Name: "Basic chemicals", Code: "C2011"}
	require.NoError(t, db.Create(&company).Error)
	require.NoError(t, db.Create(&industry).Error)

	dates := []time.Time{
		time.Date(2023, time.April, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.April, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 22, 0, 0, 0, 0, time.UTC),
	}
	statuses := []string{"settled", "ongoing", "dismissed"}
	for i := range dates {
		action := models.LegalAction{
			CompanyID:  company.ID,
			IndustryID: industry.ID,
			ActionType: "class action",
			Title:      "Case",
			Status:     statuses[i],
			Date:       dates[i],
		}
		require.NoError(t, db.Create(&action).Error)
	}
	return company, industry
}

func setupDashboardRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	t.Setenv("ELASTICSEARCH_URL", "")

	gin.SetMode(gin.TestMode)
	search, err := service.NewSearchService()
	require.NoError(t, err)
	ctrl := NewDashboardController(service.NewDashboardService(db), search)

	router := gin.New()
	router.GET("/dashboard/actions", ctrl.GetLegalActions)
	router.GET("/dashboard/options", ctrl.GetFilterOptions)
	router.GET("/dashboard/summary", ctrl.GetSummary)
	router.GET("/search", ctrl.SearchActions)
	return router
}

func doGet(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeActions(t *testing.T, w *httptest.ResponseRecorder) (int, []map[string]interface{}) {
	t.Helper()
	var resp struct {
		Actions []map[string]interface{} `json:"actions"`
		Total   int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Total, resp.Actions
}

func TestGetLegalActionsEndpoint(t *testing.T) {
	db := newControllerTestDB(t)
	company, _ := seedActions(t, db)
	router := setupDashboardRouter(t, db)

	w := doGet(router, "/dashboard/actions")
	assert.Equal(t, http.StatusOK, w.Code)
	total, actions := decodeActions(t, w)
	assert.Equal(t, 3, total)
	assert.Equal(t, "Acme Chemicals", actions[0]["company_name"])

	w = doGet(router, "/dashboard/actions?status=settled&company_id="+company.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	total, _ = decodeActions(t, w)
	assert.Equal(t, 1, total)
}

func TestGetLegalActionsEndpoint_MalformedFiltersIgnored(t *testing.T) {
	db := newControllerTestDB(t)
	seedActions(t, db)
	router := setupDashboardRouter(t, db)

	// A bad uuid or date drops that dimension instead of failing the request.
	w := doGet(router, "/dashboard/actions?company_id=not-a-uuid&from=yesterday&to=2024/06/22")
	assert.Equal(t, http.StatusOK, w.Code)
	total, _ := decodeActions(t, w)
	assert.Equal(t, 3, total)
}

func TestGetLegalActionsEndpoint_DateRangeCoversWholeDay(t *testing.T) {
	db := newControllerTestDB(t)
	seedActions(t, db)
	router := setupDashboardRouter(t, db)

	// Both boundary days are included.
	w := doGet(router, "/dashboard/actions?from=2023-04-12&to=2023-04-30")
	assert.Equal(t, http.StatusOK, w.Code)
	total, _ := decodeActions(t, w)
	assert.Equal(t, 2, total)
}

func TestGetLegalActionsEndpoint_NoMatchesIsEmptyNotError(t *testing.T) {
	db := newControllerTestDB(t)
	seedActions(t, db)
	router := setupDashboardRouter(t, db)

	w := doGet(router, "/dashboard/actions?status=appealed")
	assert.Equal(t, http.StatusOK, w.Code)
	total, actions := decodeActions(t, w)
	assert.Equal(t, 0, total)
	assert.NotNil(t, actions)
	assert.Empty(t, actions)
}

func TestGetFilterOptionsEndpoint(t *testing.T) {
	db := newControllerTestDB(t)
	seedActions(t, db)
	router := setupDashboardRouter(t, db)

	w := doGet(router, "/dashboard/options")
	assert.Equal(t, http.StatusOK, w.Code)

	var opts struct {
		Companies  []map[string]interface{} `json:"companies"`
		Industries []map[string]interface{} `json:"industries"`
		Statuses   []string                 `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Len(t, opts.Companies, 1)
	assert.Len(t, opts.Industries, 1)
	assert.Equal(t, []string{"dismissed", "ongoing", "settled"}, opts.Statuses)
}

func TestGetSummaryEndpoint(t *testing.T) {
	db := newControllerTestDB(t)
	seedActions(t, db)
	router := setupDashboardRouter(t, db)

	w := doGet(router, "/dashboard/summary?from=2023-01-01&to=2023-12-31")
	assert.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		Total      int64 `json:"total"`
		ByIndustry []struct {
			IndustryName string `json:"industry_name"`
			Count        int64  `json:"count"`
		} `json:"by_industry"`
		ByMonth []struct {
			Month string `json:"month"`
			Count int64  `json:"count"`
		} `json:"by_month"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(2), summary.Total)
	require.Len(t, summary.ByIndustry, 1)
	assert.Equal(t, int64(2), summary.ByIndustry[0].Count)
	require.Len(t, summary.ByMonth, 1)
	assert.Equal(t, "2023-04", summary.ByMonth[0].Month)
}

func TestSearchActionsEndpoint(t *testing.T) {
	db := newControllerTestDB(t)
	router := setupDashboardRouter(t, db)

	w := doGet(router, "/search")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No search backend configured.
	w = doGet(router, "/search?q=contamination")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
