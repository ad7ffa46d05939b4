// Package selection defines the FieldSelector tree that the code
// generator emits for a query's response shape (spec §3.2), and the
// QueryDescriptor contract both serializer and deserializer walk.
package selection

import "gqlcache/domain/entity"

// Kind discriminates the three FieldSelector variants.
type Kind int

const (
	// Scalar is a leaf: its value is any JSON scalar or enum.
	Scalar Kind = iota
	// Object references a single entity of a known concrete type.
	Object
	// Union references an entity whose concrete type is resolved at
	// read/write time via __typename.
	Union
)

// Resolver maps a concrete __typename to the inner selection to use for
// a Union field.
type Resolver func(typename string) []Selector

// Selector is one FieldSelector value. Exactly one of the Kind-specific
// fields is meaningful for a given Kind.
type Selector struct {
	Kind Kind

	FieldName string
	// ArgsFingerprint is a deterministic textual encoding of the
	// field's arguments; (FieldName, ArgsFingerprint) is the field key.
	ArgsFingerprint string

	// Object-only.
	Typename  string
	Selection []Selector

	// Union-only.
	ResolveSelection Resolver
}

// FieldKey returns the (fieldName, argsFingerprint) tuple identifying
// this selector's slot in the entity store.
func (s Selector) FieldKey() entity.FieldKey {
	return entity.FieldKey{Name: s.FieldName, ArgsFingerprint: s.ArgsFingerprint}
}

// ScalarField builds a Scalar selector.
func ScalarField(name, argsFingerprint string) Selector {
	return Selector{Kind: Scalar, FieldName: name, ArgsFingerprint: argsFingerprint}
}

// ObjectField builds an Object selector.
func ObjectField(name, argsFingerprint, typename string, inner []Selector) Selector {
	return Selector{Kind: Object, FieldName: name, ArgsFingerprint: argsFingerprint, Typename: typename, Selection: inner}
}

// UnionField builds a Union selector.
func UnionField(name, argsFingerprint string, resolve Resolver) Selector {
	return Selector{Kind: Union, FieldName: name, ArgsFingerprint: argsFingerprint, ResolveSelection: resolve}
}

// Descriptor is the code-generator ↔ core contract (spec §6.1). A
// generated query package implements one Descriptor per operation.
// Variables and ResponseData are left as interface{} at this boundary —
// concrete generated packages (see codegen/conference) narrow them via
// a typed wrapper, since Go generics would force every stage to be
// parameterized over the query type, which the spec explicitly treats
// as an open implementation choice (§9, "dynamic dispatch").
type Descriptor interface {
	// OperationName is the GraphQL operation name.
	OperationName() string
	// QueryText is the literal query document text.
	QueryText() string
	// OperationType is one of "Query", "Mutation", "Subscription".
	OperationType() string
	// InvolvedTypes is the set of typenames this query touches.
	InvolvedTypes() []string
	// BuildVariables serializes the descriptor's variables for the
	// wire body.
	BuildVariables() (map[string]interface{}, error)
	// Selection returns the root selection tree for this query's
	// response shape, given the (already-bound) variables.
	Selection() []Selector
	// NewResponse allocates a zero-value response container the
	// deserializer will populate.
	NewResponse() interface{}
}
