// Backend is a development stand-in for the service the frontend proxies to.
// It keeps messages in memory and serves /api/data, /api/message and /health.
//
// Usage:
//
//	PORT=3000 go run backend.go
//	go run backend.go -port 3000
//	BACKEND_URL=http://localhost:3000 go run ./cmd
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// Message is one stored message.
type Message struct {
	ID        int    `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type store struct {
	mu       sync.Mutex
	messages []Message
}

func (s *store) add(text string) (Message, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:        len(s.messages) + 1,
		Message:   text,
		Timestamp: now(),
	}
	s.messages = append(s.messages, msg)
	return msg, len(s.messages)
}

func (s *store) list() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// defaultPort is $PORT when it holds a number, 3000 otherwise.
func defaultPort() int {
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		return port
	}
	return 3000
}

func main() {
	port := flag.Int("port", defaultPort(), "port to listen on, $PORT if set")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("service", "backend"))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	s := &store{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/data", func(w http.ResponseWriter, r *http.Request) {
		log.Info("request", slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.String("request_id", r.Header.Get("X-Request-ID")))
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Hello from the development backend!",
			"timestamp": now(),
			"service":   "backend",
			"messages":  s.list(),
			"hostname":  hostname,
		})
	})

	mux.HandleFunc("POST /api/message", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		// a missing or unreadable body is treated like an empty message
		_ = json.NewDecoder(r.Body).Decode(&req)

		log.Info("request", slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.String("request_id", r.Header.Get("X-Request-ID")))

		if req.Message == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required"})
			return
		}

		msg, total := s.add(req.Message)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"data":          msg,
			"totalMessages": total,
		})
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"service":   "backend",
			"timestamp": now(),
		})
	})

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Development backend API",
			"endpoints": []string{"GET /api/data", "POST /api/message", "GET /health"},
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting backend", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}
