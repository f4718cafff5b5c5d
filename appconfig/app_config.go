package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	HTTPPort       string `env:"HTTP-PORT" ini:"http_port"`
	ChatModel      string `env:"CHAT-MODEL" ini:"chat_model"`
	EmbeddingModel string `env:"EMBEDDING-MODEL" ini:"embedding_model"`
}
