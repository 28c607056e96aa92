package main

import (
	"github.com/rs/zerolog/log"

	"github.com/mhmdnab/chat-app-backend/internal/config"
	"github.com/mhmdnab/chat-app-backend/internal/db"
	clog "github.com/mhmdnab/chat-app-backend/internal/log"
	"github.com/mhmdnab/chat-app-backend/internal/presence"
	"github.com/mhmdnab/chat-app-backend/internal/server"
	"github.com/mhmdnab/chat-app-backend/internal/ws"
)

func main() {
	// main 负责加载配置、初始化日志、连接数据库并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)
	log.Info().Strs("client_origins", cfg.ClientOrigins).Msg("cors allowed origins")

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	reg := presence.NewRegistry()
	hub := ws.NewHub(reg)
	r := server.SetupRouter(cfg, gdb, reg, hub)
	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
