package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type TMDB struct {
	BearerToken string
	Region      string
	RPS         int
}

type Catalog struct {
	// Movies must stream on at least one of these providers to be served.
	Providers []string
}

type Auth struct {
	AccessCode string
}

type Explorer struct {
	BaseURL    string
	AccessCode string
	Name       string
	Target     int
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	TMDB     TMDB
	Catalog  Catalog
	Auth     Auth
	Explorer Explorer
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		TMDB:     *newTMDB(),
		Catalog:  *newCatalog(),
		Auth:     *newAuth(),
		Explorer: *newExplorer(),
	}

	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "7000"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", ""),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "popcorn"),
		Password: getenv("DB_PASSWORD", "popcorn"),
		DBName:   getenv("DB_NAME", "popcorn"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newTMDB() *TMDB {
	return &TMDB{
		BearerToken: getenv("TMDB_BEARER_TOKEN", ""),
		Region:      getenv("TMDB_REGION", "DE"),
		RPS:         getenvInt("TMDB_RPS", 10),
	}
}

func newCatalog() *Catalog {
	raw := getenv("REQUIRED_PROVIDERS", "Netflix,Disney Plus,Amazon Prime Video")
	providers := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			providers = append(providers, p)
		}
	}
	return &Catalog{Providers: providers}
}

func newAuth() *Auth {
	return &Auth{
		AccessCode: getenv("ACCESS_CODE", "shared"),
	}
}

func newExplorer() *Explorer {
	return &Explorer{
		BaseURL:    getenv("POPCORN_URL", "http://localhost:7000"),
		AccessCode: getenv("ACCESS_CODE", "shared"),
		Name:       getenv("POPCORN_NAME", ""),
		Target:     getenvInt("EXPLORER_TARGET", 3),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}

func getenvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("%s %s is not a number, using default %d", logtag, key, defaultValue)
		return defaultValue
	}
	return n
}
