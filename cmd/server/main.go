package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vibeshq/vibes/internal/api"
	"github.com/vibeshq/vibes/internal/config"
	dbstore "github.com/vibeshq/vibes/internal/db"
	"github.com/vibeshq/vibes/internal/middleware"
)

func main() {
	config.LoadEnv()

	addr := config.GetEnv("VIBES_ADDR", ":8080")

	store, err := buildStore()
	if err != nil {
		log.Fatalf("store init: %v", err)
	}

	router := api.NewRouter(store)
	if raddr := config.GetEnv("VIBES_REDIS_ADDR", ""); raddr != "" {
		rdb, err := dbstore.NewRedisClient(raddr, config.GetEnv("VIBES_REDIS_PASSWORD", ""))
		if err != nil {
			log.Fatalf("redis init: %v", err)
		}
		log.Printf("responses backed by redis at %s", raddr)
		router = api.NewRouterWithResponseStore(store, dbstore.NewRedisResponseStore(rdb, store))
	}

	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"name": "Vibes API",
		})
	})

	handler := middleware.WithAuth(mux)

	log.Printf("Vibes server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildStore() (api.Store, error) {
	switch backend := config.GetEnv("VIBES_STORE", "memory"); backend {
	case "sqlite":
		path := config.GetEnv("VIBES_SQLITE_PATH", "vibes.db")
		conn, err := sql.Open("sqlite3", dbstore.DSN(path))
		if err != nil {
			return nil, err
		}
		if err := conn.Ping(); err != nil {
			return nil, err
		}
		log.Printf("using sqlite store at %s", path)
		return dbstore.NewStore(conn)
	default:
		log.Printf("using in-memory store (backend=%q)", backend)
		return api.NewMemoryStore(), nil
	}
}
