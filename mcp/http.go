package mcp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/grparry/mcpinvoke/jsonrpc"
)

// SessionHeader carries the session id minted when a client initializes
// over HTTP.
const SessionHeader = "Mcp-Session-Id"

// NewHTTPHandler wraps the server in an HTTP transport: one JSON-RPC
// request per POST body. The hosting layer (net/http) determines the
// concurrency degree; the server itself holds no per-request state, so
// requests are handled independently.
func NewHTTPHandler(server *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/rpc", func(w http.ResponseWriter, req *http.Request) {
		var request jsonrpc.Request
		if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
			writeResponse(w, jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrParse, err.Error())))
			return
		}

		response := server.Handle(req.Context(), request)
		if response == nil {
			// Notification: acknowledge receipt without a response frame.
			w.WriteHeader(http.StatusAccepted)
			return
		}

		if request.Method == "initialize" {
			w.Header().Set(SessionHeader, uuid.NewString())
		}
		writeResponse(w, *response)
	})

	return r
}

func writeResponse(w http.ResponseWriter, response jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
