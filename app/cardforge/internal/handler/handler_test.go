package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/command"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/minigame"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/security"
	webErrors "github.com/lk2023060901/cardforge/pkg/web/errors"
	"github.com/lk2023060901/cardforge/pkg/web/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAdminID = 77

// constSource 每次返回同一个随机数
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine *gin.Engine
	store  *dao.MemoryStore
	jwt    *security.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cat := catalog.New()
	currencies := catalog.NewCurrencyRegistry()
	require.NoError(t, currencies.Register(model.Currency{Code: "coins", Name: "Coins"}))
	require.NoError(t, cat.RegisterCard(&model.Card{
		ID:     "alpha",
		Name:   "Alpha",
		Rarity: model.RarityCommon,
		Reward: model.Reward{Currencies: map[string]int64{"coins": 5}, Experience: 2},
	}))
	require.NoError(t, cat.RegisterPack(&model.CardPack{
		ID: "starters", Name: "Starter Pack", Cards: []string{"alpha"}, AllowDuplicates: true, MaxPerRoll: 1,
	}))

	store := dao.NewMemoryStore()
	locker := service.NewStripedLocker(4)
	l := logger.NewNoop()
	drops := service.NewDropService(service.DropDeps{
		Catalog: cat, Currencies: currencies, Players: store, History: store, Locker: locker,
	}, service.DefaultDropConfig(), l)
	players := service.NewPlayerService(store, locker, cat, l)
	adminCfg := service.DefaultAdminConfig()
	adminCfg.AdminIDs = []int64{testAdminID}
	admin := service.NewAdminService(service.AdminDeps{
		Players: store, Audit: store, Catalog: cat, Currencies: currencies, Locker: locker,
	}, adminCfg, l)

	jwt, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	games := minigame.NewRegistry()
	require.NoError(t, minigame.RegisterBuiltins(games, minigame.Config{Builtin: true}))

	r := gin.New()
	NewPlayerHandler(drops, players, l).Register(r)
	NewCatalogHandler(cat, currencies, games, store.Backend()).Register(r)
	NewAdminHandler(admin, l).Register(r, middleware.Auth(jwt, adminCfg.IsAdmin))
	router := command.NewRouter(drops, players, admin, cat, l).WithMiniGames(games, constSource(0.9))
	NewCommandHandler(router, l).Register(r)
	return &testServer{engine: r, store: store, jwt: jwt}
}

func (s *testServer) do(t *testing.T, method, path, body string, header map[string]string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *testServer) adminHeader(t *testing.T, adminID int64) map[string]string {
	t.Helper()
	token, err := s.jwt.GenerateToken(adminID, "root")
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestDropEndpoint(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/users/1/drops", "", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var drop DropResponse
	require.NoError(t, json.Unmarshal(env.Data, &drop))
	require.Len(t, drop.Cards, 1)
	assert.Equal(t, "alpha", drop.Cards[0].ID)
	assert.Equal(t, int64(5), drop.Reward.Currencies["coins"])

	status, env = s.do(t, http.MethodPost, "/api/v1/users/1/drops", `{"pack_id":"starters"}`, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Message, "Cooldown active for")

	status, env = s.do(t, http.MethodGet, "/api/v1/users/1/cooldown", "", nil)
	require.Equal(t, http.StatusOK, status)
	var cd CooldownResponse
	require.NoError(t, json.Unmarshal(env.Data, &cd))
	assert.Greater(t, cd.SecondsRemaining, int64(3590))

	status, env = s.do(t, http.MethodGet, "/api/v1/users/1/history?limit=5", "", nil)
	require.Equal(t, http.StatusOK, status)
	var history []*model.DropHistoryRecord
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, []string{"alpha"}, history[0].CardIDs)

	status, env = s.do(t, http.MethodGet, "/api/v1/users/1/profile", "", nil)
	require.Equal(t, http.StatusOK, status)
	var profile service.PlayerProfile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, 1, profile.Inventory["alpha"])
	assert.Equal(t, int64(2), profile.Experience)
}

func TestDropEndpointErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   int
	}{
		{"bad user id", "/api/v1/users/abc/drops", "", http.StatusBadRequest, webErrors.CodeInvalidParams},
		{"unknown pack", "/api/v1/users/2/drops", `{"pack_id":"missing"}`, http.StatusNotFound, webErrors.CodeNotFound},
		{"bad body", "/api/v1/users/2/drops", `{`, http.StatusBadRequest, webErrors.CodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/snapshot", "", nil)
	require.Equal(t, http.StatusOK, status)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, dao.BackendMemory, snap.Storage)
	assert.Len(t, snap.Cards, 1)
	assert.Len(t, snap.Packs, 1)
	assert.Len(t, snap.Currencies, 1)
	assert.Equal(t, []string{"coinflip", "dice_duel"}, snap.MiniGames)

	for _, path := range []string{"/api/v1/packs", "/api/v1/cards", "/api/v1/currencies", "/api/v1/games"} {
		status, _ := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, status, path)
	}
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	auth := s.adminHeader(t, testAdminID)

	status, _ := s.do(t, http.MethodPost, "/api/v1/admin/users/5/ban", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/users/5/ban", "", s.adminHeader(t, 12))
	assert.Equal(t, http.StatusForbidden, status)

	status, env := s.do(t, http.MethodPost, "/api/v1/admin/users/5/ban", `{"reason":"spam"}`, auth)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.do(t, http.MethodPost, "/api/v1/users/5/drops", "", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "User 5 is banned", env.Message)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/admin/users/5/ban", "", auth)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/users/5/currency", `{"currency":"coins","amount":30}`, auth)
	require.Equal(t, http.StatusOK, status)
	status, env = s.do(t, http.MethodPost, "/api/v1/admin/users/5/currency", `{"currency":"gold","amount":30}`, auth)
	assert.Equal(t, http.StatusBadRequest, status, env.Message)

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/users/5/cards", `{"card_id":"alpha"}`, auth)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/users/5/cards", `{"card_id":"ghost"}`, auth)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/users/5/experience", `{"delta":12}`, auth)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPut, "/api/v1/admin/users/5/cooldown", `{"last_drop_at":null}`, auth)
	require.Equal(t, http.StatusOK, status)

	player, err := s.store.GetOrCreate(t.Context(), 5, "")
	require.NoError(t, err)
	assert.False(t, player.IsBanned)
	assert.Equal(t, int64(30), player.Wallet["coins"])
	assert.Equal(t, 1, player.Inventory["alpha"])
	assert.Equal(t, int64(12), player.Experience)

	status, env = s.do(t, http.MethodGet, "/api/v1/admin/audit?limit=3", "", auth)
	require.Equal(t, http.StatusOK, status)
	var entries []*model.AuditEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, service.ActionSetCooldown, entries[0].Action)
}

func TestCommandEndpoint(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/commands", `{"user_id":9,"username":"neo","text":"/drop"}`, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var reply command.Reply
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.True(t, reply.Handled)
	assert.True(t, strings.Contains(reply.Text, "Alpha"))

	status, _ = s.do(t, http.MethodPost, "/api/v1/commands", `{"text":"/drop"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPost, "/api/v1/commands", `{"user_id":9,"text":"/DiceDuel"}`, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.True(t, reply.Handled)
	assert.Equal(t, "Rolling the die...\nRolled 6! You receive 12 coins.", reply.Text)
}
