package server

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"rag-orchestrator-be/internal/config"
)

// readiness dials the optional collaborators that are actually configured.
// With nothing configured the service is trivially ready.
func readiness(cfg *config.Config) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		checks := fiber.Map{}

		if cfg.Session.RedisHost != "" {
			checks["redis"] = tcpCheck(fmt.Sprintf("%s:%d", cfg.Session.RedisHost, cfg.Session.RedisPort))
		}
		if host := hostPortFromURL(cfg.Retrieval.QdrantURL, "6333"); host != "" {
			checks["qdrant"] = tcpCheck(host)
		}
		if host := hostPortFromURL(cfg.Generation.BaseURL, "80"); host != "" && cfg.Generation.Enabled {
			checks["kserve"] = tcpCheck(host)
		}

		return ctx.JSON(checks)
	}
}

func tcpCheck(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func hostPortFromURL(raw, defaultPort string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), defaultPort)
	}
	return u.Host
}
