// Admin HTTP surface for runtime chaos control
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"chaoskit/internal/chaos"
	"chaoskit/internal/logging"
)

//go:embed templates/index.html
var content embed.FS

// PolicyRequest configures a runtime policy override.
type PolicyRequest struct {
	Enabled         bool    `json:"enabled"`
	ErrorRate       float64 `json:"error_rate"`
	MaxDelaySeconds float64 `json:"max_delay_seconds"`
	// DurationSec auto-clears the override after this many seconds.
	// 0 keeps it until /chaos/recover.
	DurationSec int `json:"duration_sec"`
}

// StatusResponse reports the effective policy and gate counters.
type StatusResponse struct {
	Enabled         bool        `json:"enabled"`
	ErrorRate       float64     `json:"error_rate"`
	MaxDelaySeconds float64     `json:"max_delay_seconds"`
	Overridden      bool        `json:"overridden"`
	Stats           chaos.Stats `json:"stats"`
}

// Server exposes runtime chaos toggling and gate stats over HTTP.
type Server struct {
	gate   *chaos.Gate
	source *chaos.OverrideSource
	tpl    *template.Template
}

// NewServer wires the admin surface to a gate and its override source.
func NewServer(gate *chaos.Gate, source *chaos.OverrideSource) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{gate: gate, source: source, tpl: tpl}
}

// Handler returns the admin route mux, also used by httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/chaos/status", s.handleStatus)
	mux.HandleFunc("/chaos", s.handleSet)
	mux.HandleFunc("/chaos/recover", s.handleRecover)
	return mux
}

// Start serves the admin surface until ctx is done, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.FromContext(ctx).Error("admin shutdown failed", "err", err)
		}
	}()
	return srv.ListenAndServe()
}

func (s *Server) status() StatusResponse {
	policy := s.source.Current()
	_, overridden := s.source.Override()
	return StatusResponse{
		Enabled:         policy.Enabled,
		ErrorRate:       policy.ErrorRate,
		MaxDelaySeconds: policy.MaxDelay.Seconds(),
		Overridden:      overridden,
		Stats:           s.gate.Stats(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := s.tpl.Execute(w, s.status()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ErrorRate < 0 || req.ErrorRate > 1 {
		http.Error(w, "error_rate outside [0,1]", http.StatusBadRequest)
		return
	}
	if req.MaxDelaySeconds < 0 {
		http.Error(w, "max_delay_seconds negative", http.StatusBadRequest)
		return
	}
	policy := chaos.Policy{
		Enabled:   req.Enabled,
		ErrorRate: req.ErrorRate,
		MaxDelay:  time.Duration(req.MaxDelaySeconds * float64(time.Second)),
	}
	s.source.Set(policy, time.Duration(req.DurationSec)*time.Second)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "chaos policy override applied"})
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.source.Clear()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "override cleared"})
}
