// Package admin is a read-only cache-introspection HTTP surface over
// the normalized Entity Store, guarded by JWT auth. Grounded on the
// teacher's interfaces/http/rest/v1/router.go gorilla/mux setup,
// mirroring its v1/v2 router split by giving the cache its own
// dedicated mux distinct from interfaces/httpdemo's chi router.
package admin

import (
	"encoding/json"
	"net/http"

	"gqlcache/application/normalizedcache"
	"gqlcache/domain/entity"
	"gqlcache/pkg/auth"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Router exposes a read-only view of the cache's entity store and
// dependency index, for operational debugging.
type Router struct {
	store     *normalizedcache.Store
	validator *auth.JWTValidator
	logger    *zap.Logger
}

// NewRouter constructs the admin router. validator may be nil, in which
// case the admin surface runs unauthenticated (intended for local/dev
// use only; production wiring always supplies one, see
// infrastructure/di).
func NewRouter(store *normalizedcache.Store, validator *auth.JWTValidator, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{store: store, validator: validator, logger: logger.Named("admin")}
}

// Handler builds the mux.Router for the admin surface.
func (rt *Router) Handler() http.Handler {
	router := mux.NewRouter()
	admin := router.PathPrefix("/admin").Subrouter()
	if rt.validator != nil {
		admin.Use(auth.Middleware(rt.validator))
		admin.Use(auth.RequireRole("admin"))
	}

	admin.HandleFunc("/entities/{key}", rt.getEntity).Methods(http.MethodGet)
	admin.HandleFunc("/dependents/{key}", rt.getDependents).Methods(http.MethodGet)
	admin.HandleFunc("/gc", rt.collectGarbage).Methods(http.MethodPost)
	admin.HandleFunc("/health", rt.health).Methods(http.MethodGet)
	return router
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// getEntity dumps every known field key's current value for a given
// entity key, reading through the optimistic overlay like any other
// cache consumer would.
func (rt *Router) getEntity(w http.ResponseWriter, r *http.Request) {
	key := entity.Key(mux.Vars(r)["key"])
	fields := rt.store.AllFieldKeys(key)
	if len(fields) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown entity key"})
		return
	}

	out := map[string]interface{}{}
	for _, fk := range fields {
		if v, ok := rt.store.ReadRecord(key, fk); ok {
			out[fk.String()] = v
			continue
		}
		if l, ok := rt.store.ReadLink(key, fk); ok {
			out[fk.String()] = l.Keys()
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"key": string(key), "fields": out})
}

// getDependents lists operation keys whose last-known dependency set
// includes the given entity key (spec §4.5's reverse index).
func (rt *Router) getDependents(w http.ResponseWriter, r *http.Request) {
	key := entity.Key(mux.Vars(r)["key"])
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":        string(key),
		"dependents": rt.store.GetDependents(key),
	})
}

// collectGarbage triggers an out-of-band sweep (spec §4.5), normally
// scheduled on a timer by infrastructure/di, exposed here for manual
// operational use.
func (rt *Router) collectGarbage(w http.ResponseWriter, r *http.Request) {
	dropped := rt.store.CollectGarbage()
	rt.logger.Info("manual garbage collection triggered", zap.Int("dropped", dropped))
	writeJSON(w, http.StatusOK, map[string]int{"dropped": dropped})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
