package main

import (
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/howl/internal/config"
	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/gateway"
	"github.com/davidbz/howl/internal/hook"
	"github.com/davidbz/howl/internal/hook/hooks"
	"github.com/davidbz/howl/internal/http"
	"github.com/davidbz/howl/internal/http/middleware"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/provider/echo"
	"github.com/davidbz/howl/internal/provider/mockapi"
	"github.com/davidbz/howl/internal/provider/openai"
	"github.com/davidbz/howl/internal/provider/registry"
	redisstore "github.com/davidbz/howl/internal/store/redis"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(observability.NewEventBus); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func(logger *zap.Logger) *registry.Registry {
		return registry.New(registry.WithLogger(logger))
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Hook chain and dispatcher
	if err := container.Provide(buildHookChain); err != nil {
		log.Fatalf("Failed to provide hook chain: %v", err)
	}
	if err := container.Provide(gateway.NewDispatcher); err != nil {
		log.Fatalf("Failed to provide dispatcher: %v", err)
	}

	// Register providers and bind them into the dispatch table
	if err := container.Invoke(registerProviders); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Hooks that need the dispatcher (secondary calls) attach after it exists.
	if err := container.Invoke(attachSecondaryHooks); err != nil {
		log.Fatalf("Failed to attach secondary hooks: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// buildHookChain assembles the hooks that do not depend on the dispatcher.
func buildHookChain(hooksCfg *config.HooksConfig, redisCfg *config.RedisConfig, events *observability.EventBus) *hook.Chain {
	chain := hook.NewChain(hooks.NewRequestLogger(events))

	if len(hooksCfg.BlockedWords) > 0 {
		chain.Append(hooks.NewContentFilter(hooksCfg.BlockedWords))
	}

	if hooksCfg.ResponsePrefix != "" {
		chain.Append(hooks.NewResponseModifier(hooksCfg.ResponsePrefix))
	}

	if redisCfg.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		chain.Append(hooks.NewUsageTracker(redisstore.NewUsageStore(client, redisCfg.KeyPrefix)))
	}

	return chain
}

// attachSecondaryHooks appends hooks that issue marked secondary calls
// through the dispatcher.
func attachSecondaryHooks(chain *hook.Chain, dispatcher *gateway.Dispatcher, hooksCfg *config.HooksConfig) {
	if hooksCfg.RefinerModel == "" {
		return
	}

	caller := gateway.NewSecondaryCaller(dispatcher, time.Duration(hooksCfg.SecondaryTimeout)*time.Second)
	chain.Append(hooks.NewResponseRefiner(caller, hooksCfg.RefinerModel))
}

// registerProviders registers every configured provider and binds the
// registry into the dispatch table.
func registerProviders(
	reg *registry.Registry,
	dispatcher *gateway.Dispatcher,
	cfg *config.Config,
) error {
	if err := reg.Register("echo", func() (domain.Provider, error) {
		return echo.NewProvider(), nil
	}); err != nil {
		return fmt.Errorf("failed to register echo provider: %w", err)
	}

	if cfg.MockAPI.APIKey != "" {
		mockCfg := cfg.MockAPI
		if err := reg.Register("mock_api", func() (domain.Provider, error) {
			return mockapi.NewProvider(mockCfg), nil
		}); err != nil {
			return fmt.Errorf("failed to register mock API provider: %w", err)
		}
	}

	if cfg.OpenAI.APIKey != "" {
		openaiCfg := cfg.OpenAI
		if err := reg.Register("openai", func() (domain.Provider, error) {
			return openai.NewProvider(openaiCfg)
		}); err != nil {
			return fmt.Errorf("failed to register OpenAI provider: %w", err)
		}
	}

	if err := reg.Initialize(dispatcher); err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	return nil
}
