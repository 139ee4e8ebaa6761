package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/matchops/arena-api/artifact"
	"github.com/matchops/arena-api/common/config"
	"github.com/matchops/arena-api/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSaltsRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "analytics.db")),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.MatchSalts{}))

	originalDB := model.AnalyticsDB
	model.AnalyticsDB = db
	t.Cleanup(func() { model.AnalyticsDB = originalDB })

	originalResolver := Resolver
	Resolver = artifact.NewResolver(nil, nil, nil, nil, nil)
	t.Cleanup(func() { Resolver = originalResolver })

	engine := gin.New()
	engine.GET("/v1/matches/:match_id/salts", GetMatchSalts)
	return engine
}

func serve(engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGetMatchSaltsComposesReplayURLs(t *testing.T) {
	engine := newSaltsRouter(t)
	require.NoError(t, model.AnalyticsDB.Create(&model.MatchSalts{
		MatchID:      42_000_000,
		ClusterID:    134,
		MetadataSalt: 999,
	}).Error)

	w := serve(engine, http.MethodGet, "/v1/matches/42000000/salts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp saltsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(42_000_000), resp.MatchID)
	assert.Equal(t, uint32(134), resp.ClusterID)
	assert.Equal(t, "http://replay134.valve.net/1422450/42000000_999.meta.bz2", resp.MetadataURL)
	// No replay salt, no demo url.
	assert.Empty(t, resp.DemoURL)
}

func TestGetMatchSaltsRejectsBadMatchID(t *testing.T) {
	engine := newSaltsRouter(t)

	w := serve(engine, http.MethodGet, "/v1/matches/not-a-number/salts", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMatchSaltsPreWatermarkIs404(t *testing.T) {
	engine := newSaltsRouter(t)

	w := serve(engine, http.MethodGet, "/v1/matches/1000/salts", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
}

func TestGetMatchHistoryConflictingFlags(t *testing.T) {
	engine := gin.New()
	engine.GET("/v1/players/:account_id/match-history", GetMatchHistory)

	w := serve(engine, http.MethodGet,
		"/v1/players/123/match-history?force_refetch=true&only_stored_history=true", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "mutually exclusive")
}

func TestSetPlayerPrivacyRequiresInternalKey(t *testing.T) {
	original := config.InternalAPIKey
	config.InternalAPIKey = "secret"
	t.Cleanup(func() { config.InternalAPIKey = original })

	engine := gin.New()
	engine.POST("/v1/players/:account_id/privacy", SetPlayerPrivacy)

	w := serve(engine, http.MethodPost, "/v1/players/123/privacy",
		`{"protected":true}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestSaltsRejectsEmptyBatch(t *testing.T) {
	engine := gin.New()
	engine.POST("/v1/matches/salts", IngestSalts)

	w := serve(engine, http.MethodPost, "/v1/matches/salts", `[]`,
		map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
