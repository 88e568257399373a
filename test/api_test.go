package test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/api"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/auth"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/config"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/storage"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/verse"
)

type testApp struct {
	logger internal.Logger
	repos  *storage.Repositories
	verse  *verse.Service
}

func (a *testApp) Logger() internal.Logger      { return a.logger }
func (a *testApp) Repos() *storage.Repositories { return a.repos }
func (a *testApp) Verse() *verse.Service        { return a.verse }

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	repos, fs, err := storage.NewFileRepositories(
		filepath.Join(dir, "plans.json"),
		filepath.Join(dir, "user_plans.json"),
		filepath.Join(dir, "progress.json"),
		filepath.Join(dir, "profiles.json"),
		logger,
	)
	assert.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	assert.NoError(t, storage.SeedDefaultPlans(context.Background(), repos.Plans, logger))

	a := &testApp{
		logger: logger,
		repos:  repos,
		verse:  verse.NewService("http://127.0.0.1:1/nope", logger),
	}
	cfg := &config.Config{Env: "development"}
	provider := auth.NewLocalAuthProvider("MOCK-TOKEN", logger)

	r := gin.New()
	r.Use(api.RequestIDMiddleware())
	protected := r.Group("/api")
	protected.Use(auth.AuthMiddleware(provider, cfg))
	protected.GET("/plans", api.GetPlans(a))
	protected.GET("/plans/:id", api.GetPlan(a))
	protected.POST("/plans/:id/enroll", api.PostEnroll(a))
	protected.GET("/user-plans", api.GetUserPlans(a))
	protected.GET("/user-plans/:id/today", api.GetToday(a))
	protected.POST("/user-plans/:id/toggle", api.PostToggle(a))
	protected.POST("/user-plans/:id/advance", api.PostAdvance(a))
	protected.POST("/user-plans/:id/archive", api.PostArchive(a, true))
	protected.POST("/user-plans/:id/unarchive", api.PostArchive(a, false))
	protected.GET("/stats", api.GetStats(a))
	protected.GET("/profile", api.GetProfile(a))
	protected.PUT("/profile", api.PutProfile(a))
	protected.GET("/verse", api.GetVerse(a))
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer MOCK-TOKEN")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func dataField(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NoError(t, json.Unmarshal(resp.Data, out))
}

func enroll(t *testing.T, r *gin.Engine, planID string) string {
	w := doRequest(r, "POST", "/api/plans/"+planID+"/enroll?date=2025-03-20", "")
	assert.Equal(t, 200, w.Code)
	var up internal.UserPlan
	dataField(t, w, &up)
	assert.NotEmpty(t, up.ID)
	return up.ID
}

func TestRequiresAuth(t *testing.T) {
	r := setupRouter(t)
	req, _ := http.NewRequest("GET", "/api/plans", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)

	req, _ = http.NewRequest("GET", "/api/plans", nil)
	req.Header.Set("Authorization", "Bearer WRONG")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 401, w.Code)
}

func TestListAndGetPlans(t *testing.T) {
	r := setupRouter(t)
	w := doRequest(r, "GET", "/api/plans", "")
	assert.Equal(t, 200, w.Code)
	var plans []internal.ReadingPlan
	dataField(t, w, &plans)
	assert.Len(t, plans, 3)

	w = doRequest(r, "GET", "/api/plans/gospel-rotation", "")
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "GET", "/api/plans/no-such-plan", "")
	assert.Equal(t, 404, w.Code)
}

func TestEnrollTodayToggleAdvanceFlow(t *testing.T) {
	r := setupRouter(t)
	upID := enroll(t, r, "gospel-rotation")

	w := doRequest(r, "GET", "/api/user-plans/"+upID+"/today?date=2025-03-20", "")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "Matthew 1")

	// Advance before reading is a conflict.
	w = doRequest(r, "POST", "/api/user-plans/"+upID+"/advance", `{"list_id":"gospels","date":"2025-03-20"}`)
	assert.Equal(t, 409, w.Code)

	w = doRequest(r, "POST", "/api/user-plans/"+upID+"/toggle", `{"token":"gospels:0","date":"2025-03-20"}`)
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "POST", "/api/user-plans/"+upID+"/advance", `{"list_id":"gospels","date":"2025-03-20"}`)
	assert.Equal(t, 200, w.Code)
	var up internal.UserPlan
	dataField(t, w, &up)
	assert.Equal(t, 1, up.ListPositions["gospels"])

	// The next chapter is now due.
	w = doRequest(r, "GET", "/api/user-plans/"+upID+"/today?date=2025-03-20", "")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "Matthew 2")
}

func TestToggleValidation(t *testing.T) {
	r := setupRouter(t)
	upID := enroll(t, r, "gospel-rotation")

	// Missing token
	w := doRequest(r, "POST", "/api/user-plans/"+upID+"/toggle", `{}`)
	assert.Equal(t, 400, w.Code)

	// Token addressing nothing in the plan
	w = doRequest(r, "POST", "/api/user-plans/"+upID+"/toggle", `{"token":"banana:7"}`)
	assert.Equal(t, 400, w.Code)

	// Bad date format
	w = doRequest(r, "POST", "/api/user-plans/"+upID+"/toggle", `{"token":"gospels:0","date":"20-03-2025"}`)
	assert.Equal(t, 400, w.Code)
}

func TestAdvanceStaleVersionConflict(t *testing.T) {
	r := setupRouter(t)
	upID := enroll(t, r, "gospel-rotation")

	w := doRequest(r, "POST", "/api/user-plans/"+upID+"/toggle", `{"token":"gospels:0","date":"2025-03-20"}`)
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "POST", "/api/user-plans/"+upID+"/advance", `{"list_id":"gospels","date":"2025-03-20","version":42}`)
	assert.Equal(t, 409, w.Code)
}

func TestArchiveAndUnarchive(t *testing.T) {
	r := setupRouter(t)
	upID := enroll(t, r, "balanced-30")

	w := doRequest(r, "POST", "/api/user-plans/"+upID+"/archive", "")
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "GET", "/api/user-plans", "")
	assert.Equal(t, 200, w.Code)
	var lists struct {
		Active   []json.RawMessage `json:"active"`
		Archived []json.RawMessage `json:"archived"`
	}
	dataField(t, w, &lists)
	assert.Len(t, lists.Active, 0)
	assert.Len(t, lists.Archived, 1)

	w = doRequest(r, "POST", "/api/user-plans/"+upID+"/unarchive", "")
	assert.Equal(t, 200, w.Code)
}

func TestStatsAndProfile(t *testing.T) {
	r := setupRouter(t)
	upID := enroll(t, r, "gospel-rotation")

	for _, token := range []string{"gospels:0", "psalms:0", "proverbs:0"} {
		w := doRequest(r, "POST", "/api/user-plans/"+upID+"/toggle", `{"token":"`+token+`","date":"2025-03-20"}`)
		assert.Equal(t, 200, w.Code)
	}

	w := doRequest(r, "GET", "/api/stats?date=2025-03-20", "")
	assert.Equal(t, 200, w.Code)
	var stats internal.UserStats
	dataField(t, w, &stats)
	assert.Equal(t, 3, stats.TotalChaptersRead)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, "RECRUIT", stats.Rank)

	w = doRequest(r, "GET", "/api/profile", "")
	assert.Equal(t, 200, w.Code)
	var profile internal.Profile
	dataField(t, w, &profile)
	assert.Equal(t, 3, profile.StreakMinimum)

	w = doRequest(r, "PUT", "/api/profile", `{"streak_minimum":5}`)
	assert.Equal(t, 200, w.Code)

	w = doRequest(r, "PUT", "/api/profile", `{"streak_minimum":0}`)
	assert.Equal(t, 400, w.Code)
}

func TestVerseOfDayFallsBack(t *testing.T) {
	r := setupRouter(t)
	w := doRequest(r, "GET", "/api/verse", "")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "Jeremiah 29:11")
}

func TestUserPlanNotFound(t *testing.T) {
	r := setupRouter(t)
	w := doRequest(r, "GET", "/api/user-plans/nope/today", "")
	assert.Equal(t, 404, w.Code)
}
