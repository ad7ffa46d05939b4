// Package operation defines the Operation and OperationResult types that
// flow through the pipeline (spec §3.1), following the teacher corpus's
// command/query bus convention of a self-validating request value.
package operation

import (
	"fmt"
	"hash/fnv"

	"gqlcache/domain/selection"

	"github.com/go-playground/validator/v10"
)

// Type enumerates the three GraphQL operation kinds.
type Type string

const (
	TypeQuery        Type = "Query"
	TypeMutation     Type = "Mutation"
	TypeSubscription Type = "Subscription"
)

// RequestPolicy controls how a query interacts with the cache layers.
type RequestPolicy string

const (
	CacheFirst     RequestPolicy = "CacheFirst"
	CacheOnly      RequestPolicy = "CacheOnly"
	NetworkOnly    RequestPolicy = "NetworkOnly"
	CacheAndNetwork RequestPolicy = "CacheAndNetwork"
)

var validate = validator.New()

// Meta carries the query-template identity and operation classification
// that accompanies an Operation through the whole chain.
type Meta struct {
	// QueryKey is hash(queryText) — the query-template identity. Not
	// used by cache logic; exposed for tooling/telemetry (SPEC_FULL §14.1).
	QueryKey string
	OperationType Type
	InvolvedTypes []string
}

// Query is the wire body sent to the transport.
type Query struct {
	Text          string                 `validate:"required"`
	OperationName string                 `validate:"required"`
	Variables     map[string]interface{}
}

// Extensions is the heterogeneous, per-operation extension bag (spec §9,
// "Heterogeneous extension bag"). Keyed by a string identifier; values
// are opaque and downcast by the one reader that understands them.
type Extensions map[string]interface{}

// NormalizedCacheExtensionKey is the extension identifier the normalized
// cache stage reads on mutation operations (§6.3).
const NormalizedCacheExtensionKey = "normalizedCache"

// NormalizedCacheExtension is the per-mutation optimistic/update bag
// (§6.3). Only ever read by the normalized cache stage.
type NormalizedCacheExtension struct {
	// OptimisticResult, if non-nil, produces a speculative response
	// value to apply before the network round-trip completes.
	OptimisticResult func() (interface{}, bool)
	// Update, if non-nil, lets the mutation imperatively amend other
	// cached queries (§4.4.6). StoreHandle is declared in
	// application/normalizedcache to avoid an import cycle; it is
	// passed as interface{} here and the closure type-asserts it to
	// *normalizedcache.StoreHandle.
	Update func(data interface{}, store interface{}, dependencies map[string]struct{})
}

// Options carries transport-level and cache-level configuration for a
// single operation.
type Options struct {
	URL           string
	ExtraHeaders  map[string]string
	RequestPolicy RequestPolicy
	Extensions    Extensions
}

// Operation is a single request flowing through the pipeline.
type Operation struct {
	// Key is hash(queryText, variables) — the operation identity used
	// for dedup, the subscription slot and the dependency index
	// (SPEC_FULL §14.1).
	Key        string
	Meta       Meta
	Query      Query
	Options    Options
	Descriptor selection.Descriptor
}

// Validate implements the command/query-bus style self-validation
// contract the teacher's bus types use.
func (op *Operation) Validate() error {
	if err := validate.Struct(op.Query); err != nil {
		return fmt.Errorf("operation: invalid query: %w", err)
	}
	if op.Key == "" {
		return fmt.Errorf("operation: missing key")
	}
	return nil
}

// NewKey computes a content-addressed 64-bit hash of query text and
// variables, per spec §3.1 ("key = hash(queryText, variables)").
func NewKey(queryText string, variables map[string]interface{}) string {
	h := fnv.New64a()
	h.Write([]byte(queryText))
	h.Write([]byte(fmt.Sprintf("%v", variables)))
	return fmt.Sprintf("%x", h.Sum64())
}

// NewQueryKey computes hash(queryText) only, the query-template
// identity (SPEC_FULL §14.1).
func NewQueryKey(queryText string) string {
	h := fnv.New64a()
	h.Write([]byte(queryText))
	return fmt.Sprintf("%x", h.Sum64())
}

// DebugInfo records provenance about how a result was produced (§3.1).
type DebugInfo struct {
	Source  Source
	DidDedup bool
}

// Source indicates whether a result came from the cache or the network.
type Source string

const (
	SourceCache   Source = "Cache"
	SourceNetwork Source = "Network"
)

// GraphQLError is one entry of a GraphQL response's "errors" array.
type GraphQLError struct {
	Message string                 `json:"message"`
	Path    []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Response is the decoded GraphQL wire response.
type Response struct {
	Data       interface{}
	Errors     []GraphQLError
	Extensions map[string]interface{}
	Debug      DebugInfo
}

// HasErrors reports whether the response carries server-side GraphQL
// errors (distinct from a transport failure, per spec §7).
func (r *Response) HasErrors() bool { return len(r.Errors) > 0 }

// Result is an OperationResult: the same key/meta, plus a Response.
type Result struct {
	Key      string
	Meta     Meta
	Response Response
}

// Clone returns a shallow copy of the result suitable for delivering to
// multiple dedup waiters independently (each gets its own DebugInfo).
func (r *Result) Clone() *Result {
	cp := *r
	return &cp
}
