package config

import (
	"os"
	"strings"
)

type Config struct {
	Port          string
	DatabaseDSN   string
	ClientOrigins []string
	Env           string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// splitOrigins 把逗号分隔的来源列表拆成去除空白后的切片，空项丢弃。
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() Config {
	port := getenv("APP_PORT", "4000")
	dsn := getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=chatapp port=5432 sslmode=disable TimeZone=UTC")
	origins := getenv("CLIENT_ORIGINS", "http://localhost:3000")
	env := getenv("APP_ENV", "dev")
	return Config{
		Port:          port,
		DatabaseDSN:   dsn,
		ClientOrigins: splitOrigins(origins),
		Env:           env,
	}
}
