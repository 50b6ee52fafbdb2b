package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"sitehub/internal/config"
)

// config-check loads the environment the services would see and prints it
// with secrets masked
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "GO_ENV\t%s\n", cfg.GoEnv)
	fmt.Fprintf(w, "HTTP_PORT\t%d\n", cfg.HTTPPort)
	fmt.Fprintf(w, "DATABASE_URL\t%s\n", mask(cfg.DatabaseURL))
	fmt.Fprintf(w, "REDIS_ADDR\t%s\n", cfg.RedisAddr())
	fmt.Fprintf(w, "CACHE_TTL\t%ds\n", cfg.CacheTTL)
	fmt.Fprintf(w, "JWT_SECRET\t%s\n", mask(cfg.JWTSecret))
	fmt.Fprintf(w, "ACCESS_TOKEN_TTL\t%s\n", cfg.AccessTokenTTL)
	fmt.Fprintf(w, "PLANS_API_URL\t%s\n", cfg.PlansAPIURL)
	fmt.Fprintf(w, "PLANS_API_TOKEN\t%s\n", mask(cfg.PlansAPIToken))
	fmt.Fprintf(w, "PLAN_SYNC_INTERVAL\t%s\n", cfg.PlanSyncInterval)
	fmt.Fprintf(w, "PLAN_SYNC_WORKERS\t%d\n", cfg.PlanSyncWorkers)
	fmt.Fprintf(w, "BILLING_ENABLED\t%t\n", cfg.BillingEnabled)
	fmt.Fprintf(w, "LOG\t%s/%s\n", cfg.LogLevel, cfg.LogFormat)
	fmt.Fprintf(w, "CORS_ORIGINS\t%v\n", cfg.CORSOrigins)
	w.Flush()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}
	fmt.Println("config ok")
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
