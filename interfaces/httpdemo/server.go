// Package httpdemo is a demo GraphQL server for the Conference/Talk
// schema (codegen/conference), serving as a real transport target for
// the transport stage and the integration scenarios of spec §8.
// Grounded on the teacher's interfaces/http/rest/router.go chi setup
// (global middleware stack, CORS, health checks).
package httpdemo

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Talk is a single talk belonging to a Conference.
type Talk struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Conference is the root entity served by this demo schema.
type Conference struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	Talks []Talk `json:"talks"`
}

// Store is the in-memory backing data for the demo server, seeded with
// a handful of conferences and mutated by AddConference.
type Store struct {
	mu          sync.Mutex
	conferences map[string]*Conference
}

// NewStore seeds a Store with sample data.
func NewStore() *Store {
	s := &Store{conferences: make(map[string]*Conference)}
	s.seed("1", "GopherCon", "San Diego", []Talk{{ID: "t1", Title: "Generics in Practice"}})
	s.seed("2", "KubeCon", "Chicago", []Talk{{ID: "t2", Title: "Operators at Scale"}})
	return s
}

func (s *Store) seed(id, name, city string, talks []Talk) {
	s.conferences[id] = &Conference{ID: id, Name: name, City: city, Talks: talks}
}

func (s *Store) get(id string) (*Conference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conferences[id]
	return c, ok
}

func (s *Store) list() []*Conference {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Conference, 0, len(s.conferences))
	for _, c := range s.conferences {
		out = append(out, c)
	}
	return out
}

func (s *Store) add(name string) *Conference {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	c := &Conference{ID: id, Name: name, City: "", Talks: []Talk{}}
	s.conferences[id] = c
	return c
}

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   interface{}    `json:"data,omitempty"`
	Errors []graphQLError `json:"errors,omitempty"`
}

// Server is the demo GraphQL HTTP server.
type Server struct {
	store  *Store
	logger *zap.Logger
}

// NewServer constructs a Server backed by store.
func NewServer(store *Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: store, logger: logger.Named("httpdemo")}
}

// Handler builds the chi router exposing /graphql and health checks.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", s.health)
	router.Post("/graphql", s.graphql)
	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// graphql dispatches on operationName, since this demo server only
// needs to serve the three operations codegen/conference defines.
func (s *Server) graphql(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "failed to decode request body: "+err.Error())
		return
	}

	switch req.OperationName {
	case "GetConference":
		s.handleGetConference(w, req.Variables)
	case "GetConferences":
		s.handleGetConferences(w)
	case "AddConference":
		s.handleAddConference(w, req.Variables)
	default:
		s.writeError(w, "unknown operation: "+req.OperationName)
	}
}

func (s *Server) handleGetConference(w http.ResponseWriter, variables map[string]interface{}) {
	// Simulated network latency, matching handleAddConference, so
	// concurrent identical requests have a real window to collapse in
	// the dedup stage instead of racing to completion instantly.
	time.Sleep(5 * time.Millisecond)
	id, _ := variables["id"].(string)
	c, ok := s.store.get(id)
	if !ok {
		s.writeJSON(w, graphQLResponse{Data: map[string]interface{}{"conference": nil}})
		return
	}
	s.writeJSON(w, graphQLResponse{Data: map[string]interface{}{"conference": toWire(c)}})
}

func (s *Server) handleGetConferences(w http.ResponseWriter) {
	list := s.store.list()
	wire := make([]interface{}, 0, len(list))
	for _, c := range list {
		wire = append(wire, toWire(c))
	}
	s.writeJSON(w, graphQLResponse{Data: map[string]interface{}{"conferences": wire}})
}

func (s *Server) handleAddConference(w http.ResponseWriter, variables map[string]interface{}) {
	name, _ := variables["name"].(string)
	if name == "" {
		s.writeError(w, "name is required")
		return
	}
	// Simulated network latency so dedup/in-flight races in the pipeline
	// have something real to collapse against.
	time.Sleep(5 * time.Millisecond)
	c := s.store.add(name)
	s.writeJSON(w, graphQLResponse{Data: map[string]interface{}{"addConference": toWire(c)}})
}

func toWire(c *Conference) map[string]interface{} {
	talks := make([]interface{}, 0, len(c.Talks))
	for _, t := range c.Talks {
		talks = append(talks, map[string]interface{}{
			"__typename": "Talk",
			"id":         t.ID,
			"title":      t.Title,
		})
	}
	return map[string]interface{}{
		"__typename": "Conference",
		"id":         c.ID,
		"name":       c.Name,
		"city":       c.City,
		"talks":      talks,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, resp graphQLResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string) {
	s.writeJSON(w, graphQLResponse{Errors: []graphQLError{{Message: message}}})
}
