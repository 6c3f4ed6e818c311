package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/minigame"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/pkg/web"
)

// CatalogHandler 只读的目录接口
type CatalogHandler struct {
	catalog    *catalog.Catalog
	currencies *catalog.CurrencyRegistry
	games      *minigame.Registry
	storage    string
}

// NewCatalogHandler 创建目录处理器，storage 为当前存储后端名称，games 可以为 nil
func NewCatalogHandler(cat *catalog.Catalog, currencies *catalog.CurrencyRegistry, games *minigame.Registry, storage string) *CatalogHandler {
	if games == nil {
		games = minigame.NewRegistry()
	}
	return &CatalogHandler{catalog: cat, currencies: currencies, games: games, storage: storage}
}

// Snapshot 应用快照
type Snapshot struct {
	Storage    string            `json:"storage"`
	Cards      []*model.Card     `json:"cards"`
	Packs      []*model.CardPack `json:"packs"`
	Currencies []model.Currency  `json:"currencies"`
	MiniGames  []string          `json:"mini_games"`
}

// Register 注册路由
func (h *CatalogHandler) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	{
		api.GET("/packs", h.Packs)
		api.GET("/cards", h.Cards)
		api.GET("/currencies", h.Currencies)
		api.GET("/games", h.Games)
		api.GET("/snapshot", h.Snapshot)
	}
}

// Packs 已注册卡包
func (h *CatalogHandler) Packs(c *gin.Context) {
	web.Success(c, h.catalog.Packs())
}

// Cards 已注册卡牌
func (h *CatalogHandler) Cards(c *gin.Context) {
	web.Success(c, h.catalog.Cards())
}

// Currencies 已注册货币
func (h *CatalogHandler) Currencies(c *gin.Context) {
	web.Success(c, h.currencies.All())
}

// Games 已注册小游戏
func (h *CatalogHandler) Games(c *gin.Context) {
	web.Success(c, h.games.All())
}

// Snapshot 存储后端与完整目录
func (h *CatalogHandler) Snapshot(c *gin.Context) {
	web.Success(c, Snapshot{
		Storage:    h.storage,
		Cards:      h.catalog.Cards(),
		Packs:      h.catalog.Packs(),
		Currencies: h.currencies.All(),
		MiniGames:  h.games.IDs(),
	})
}
