package app

import (
	"github.com/FreerikH/popcorn/internal/config"
	http_auth "github.com/FreerikH/popcorn/internal/delivery/http/auth"
	http_init "github.com/FreerikH/popcorn/internal/delivery/http/init"
	http_auth_middleware "github.com/FreerikH/popcorn/internal/delivery/http/middleware/auth"
	http_movie "github.com/FreerikH/popcorn/internal/delivery/http/movie"
	http_preference "github.com/FreerikH/popcorn/internal/delivery/http/preference"
	infra_pg_init "github.com/FreerikH/popcorn/internal/infra/postgres/init"
	infra_postgres_preference "github.com/FreerikH/popcorn/internal/infra/postgres/preference"
	infra_redis_init "github.com/FreerikH/popcorn/internal/infra/redis/init"
	infra_movie_cache "github.com/FreerikH/popcorn/internal/infra/redis/movies"
	infra_session_cache "github.com/FreerikH/popcorn/internal/infra/redis/session"
	"github.com/FreerikH/popcorn/internal/infra/tmdb"
	service_session_auth "github.com/FreerikH/popcorn/internal/service/auth/session"
	usecase_catalog "github.com/FreerikH/popcorn/internal/usecase/catalog"
	usecase_preference "github.com/FreerikH/popcorn/internal/usecase/preference"
)

func Go(cfg *config.Config) {
	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)

	tmdbClient := tmdb.New(cfg.TMDB.BearerToken,
		tmdb.WithRegion(cfg.TMDB.Region),
		tmdb.WithRPS(cfg.TMDB.RPS),
	)

	movieCache := infra_movie_cache.New(redisConn)
	preferenceRepository := infra_postgres_preference.New(pgConn)

	catalogUC := usecase_catalog.New(movieCache, tmdbClient,
		usecase_catalog.WithRequiredProviders(cfg.Catalog.Providers),
	)
	preferenceUC := usecase_preference.New(preferenceRepository)

	sessionCache := infra_session_cache.New(redisConn, "session_cache")
	authService := service_session_auth.New(&cfg.Auth.AccessCode, sessionCache, nil)
	authMiddleware := http_auth_middleware.New(authService)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_auth.New(authService))
	controllerPool.Add(http_movie.New(catalogUC, authMiddleware))
	controllerPool.Add(http_preference.New(preferenceUC, authMiddleware))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
