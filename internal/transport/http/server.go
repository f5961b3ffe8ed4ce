package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/config"
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/proto"
)

// InfoResponse describes the server to clients before they connect.
type InfoResponse struct {
	Name             string `json:"name"`
	Protocol         int    `json:"protocol"`
	DefaultRoom      string `json:"defaultRoom"`
	MaxMessageLength int    `json:"maxMessageLength"`
	MaxNickLength    int    `json:"maxNickLength"`
	HistoryPageSize  int    `json:"historyPageSize"`
}

// NewServer builds the HTTP server: health check, info endpoint and the
// WebSocket upgrade route.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/api/info", infoHandler(cfg))

	// The upgrade hijacks the underlying connection, which gin's
	// ResponseWriter rejects once the 101 is written, so /ws mounts on
	// the plain mux.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg.SendRateLimit, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func infoHandler(cfg *config.Config) gin.HandlerFunc {
	info := InfoResponse{
		Name:             "roomchat",
		Protocol:         proto.ProtocolVersion,
		DefaultRoom:      core.DefaultRoom,
		MaxMessageLength: core.MaxMessageLength,
		MaxNickLength:    core.MaxNickLength,
		HistoryPageSize:  cfg.HistoryPageSize,
	}
	return func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, info)
	}
}
