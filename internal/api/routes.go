package api

import (
	"github.com/gin-gonic/gin"

	"vecdb-go/internal/config"
)

// SetupRoutes registers the four operations under the URL suffixes
// configured in cfg.
func SetupRoutes(router *gin.Engine, cfg *config.ServerConfig) {
	router.GET(cfg.PingURLSuffix, HandlePing)
	router.POST(cfg.CreateCollectionSuffix, HandleCreateCollection)
	router.POST(cfg.UpsertURLSuffix, HandleUpsert)
	router.POST(cfg.QueryURLSuffix, HandleQuery)
}
