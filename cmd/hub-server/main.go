package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/flowai-hub/flowai-hub/cmd/hub-server/auth"
	"github.com/flowai-hub/flowai-hub/cmd/hub-server/handlers"
	"github.com/flowai-hub/flowai-hub/internal/config"
	"github.com/flowai-hub/flowai-hub/internal/connections"
	"github.com/flowai-hub/flowai-hub/internal/events"
	"github.com/flowai-hub/flowai-hub/internal/providers"
)

const ServiceVersion = "v1.0.0"

func init() {
	// Load environment variables FIRST (AWS Secrets Manager, then .env)
	config.LoadEnv("../../.env")
}

func main() {
	fmt.Printf("Starting FlowAI Hub server %s\n", ServiceVersion)

	registry, err := providers.LoadRegistryFromEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to load provider configuration: %v", err))
	}

	store, err := connections.NewStoreFromEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize connection store: %v", err))
	}
	defer store.Close()

	states := connections.NewStateStore(store.Redis(), 0)

	publisher, err := events.NewPublisherFromEnv()
	if err != nil {
		fmt.Printf("Warning: event publisher unavailable, connection events disabled: %v\n", err)
	}
	if publisher != nil {
		defer publisher.Close()
	}

	// Identity backend session verification
	identityAuth := auth.NewIdentityAuth()
	var resolveUser handlers.UserResolver
	if identityAuth != nil {
		resolveUser = identityAuth.ResolveUser
	} else {
		fmt.Println("Warning: identity verification not configured (IDENTITY_JWT_SECRET / IDENTITY_JWKS_URL not set)")
		fmt.Println("Running in development mode; all requests act as the dev user")
		devUser := os.Getenv("DEV_USER_ID")
		if devUser == "" {
			devUser = "dev-user"
		}
		resolveUser = func(r *http.Request) (*auth.UserContext, error) {
			return &auth.UserContext{UserID: devUser}, nil
		}
	}

	// Setup router
	mux := http.NewServeMux()

	page := handlers.NewPageHandlerFromEnv()
	mux.HandleFunc("/", page.HandleHome)

	registry.Each(func(p *providers.Provider) {
		connect := handlers.NewConnectHandler(p, states, resolveUser)
		callback := handlers.NewCallbackHandler(p, store, states, publisher, resolveUser)
		mux.HandleFunc("/connect/"+p.Key, connect.HandleConnect)
		mux.HandleFunc("/callback/"+p.Key, callback.HandleCallback)
		fmt.Printf("Registered provider: %s\n", p.DisplayName)
	})

	connectionsAPI := handlers.NewConnectionsAPIHandler(store)
	if identityAuth != nil {
		authMiddleware := auth.RequireAuth(identityAuth)
		mux.Handle("/api/connections", authMiddleware.HandlerFunc(connectionsAPI.HandleList))
	} else {
		// Dev mode: inject the dev user the same way the middleware would
		mux.HandleFunc("/api/connections", func(w http.ResponseWriter, r *http.Request) {
			user, _ := resolveUser(r)
			connectionsAPI.HandleList(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handlerWithCors := corsMiddleware(mux)

	port := 3000
	if v := os.Getenv("PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			port = parsed
		}
	}

	fmt.Printf("FlowAI Hub listening on port %d\n", port)
	fmt.Printf("   - Landing page:  http://localhost:%d/\n", port)
	fmt.Printf("   - Connections:   http://localhost:%d/api/connections\n", port)
	fmt.Printf("   - Health:        http://localhost:%d/healthz\n", port)

	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), handlerWithCors); err != nil {
		panic(fmt.Sprintf("Failed to start server: %v", err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
