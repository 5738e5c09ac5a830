package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"inkwell/internal/auth"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/logger"
	"inkwell/internal/repository"
	"inkwell/internal/service"
)

//go:embed seed.json
var defaultSeed []byte

func main() {
	file := flag.String("file", "", "path to a JSON seed document (defaults to the bundled sample)")
	url := flag.String("url", "", "URL of a JSON seed document")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	log.Info().Msg("starting seed script")

	raw, source, err := loadSeed(*file, *url)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed data")
	}

	var data service.SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatal().Err(err).Str("source", source).Msg("failed to parse seed data")
	}
	log.Info().Str("source", source).Int("users", len(data.Users)).Int("posts", len(data.Posts)).Msg("seed data loaded")

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	userRepo := repository.NewUserRepository(gormDB)
	// Seeding never issues tokens; the JWT service only satisfies the constructor.
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := service.NewAuthService(userRepo, jwtService, auth.NewTokenStore(cacheClient))
	postService := service.NewPostService(repository.NewPostRepository(gormDB), cacheClient)
	seeder := service.NewSeedService(userRepo, authService, postService)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := seeder.Seed(ctx, data)
	if err != nil {
		log.Fatal().Err(err).
			Int("users_created", res.UsersCreated).
			Int("posts_created", res.PostsCreated).
			Msg("failed to seed")
	}

	log.Info().
		Int("users_created", res.UsersCreated).
		Int("users_skipped", res.UsersSkipped).
		Int("posts_created", res.PostsCreated).
		Msg("seed completed successfully")
}

func loadSeed(file, url string) ([]byte, string, error) {
	switch {
	case file != "":
		raw, err := os.ReadFile(file)
		return raw, file, err
	case url != "":
		raw, err := fetchSeed(url)
		return raw, url, err
	default:
		return defaultSeed, "bundled", nil
	}
}

// fetchSeed downloads a seed document.
func fetchSeed(url string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
