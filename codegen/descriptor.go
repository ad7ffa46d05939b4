// Package codegen documents and exercises the code-generator ↔ core
// contract of spec §6.1. It is not itself a code generator: a real
// deployment would run `go generate` over .graphql documents to produce
// packages shaped like codegen/conference. This file hand-writes the
// scaffolding a generator would emit, as the minimal exemplar the
// contract requires.
package codegen

import (
	"gqlcache/domain/operation"
	"gqlcache/domain/selection"
)

// Base is embeddable scaffolding a generated query package can compose
// to satisfy selection.Descriptor's bookkeeping fields, leaving only
// Selection/NewResponse/BuildVariables to the generated type itself.
type Base struct {
	Name      string
	Text      string
	OpType    operation.Type
	Types     []string
}

func (b Base) OperationName() string   { return b.Name }
func (b Base) QueryText() string       { return b.Text }
func (b Base) OperationType() string   { return string(b.OpType) }
func (b Base) InvolvedTypes() []string { return b.Types }

// BuildOperation assembles a domain/operation.Operation from a
// descriptor and per-call options, computing the key/meta fields per
// SPEC_FULL §14.1.
func BuildOperation(desc selection.Descriptor, opts operation.Options) (*operation.Operation, error) {
	variables, err := desc.BuildVariables()
	if err != nil {
		return nil, err
	}
	key := operation.NewKey(desc.QueryText(), variables)
	return &operation.Operation{
		Key: key,
		Meta: operation.Meta{
			QueryKey:      operation.NewQueryKey(desc.QueryText()),
			OperationType: operation.Type(desc.OperationType()),
			InvolvedTypes: desc.InvolvedTypes(),
		},
		Query: operation.Query{
			Text:          desc.QueryText(),
			OperationName: desc.OperationName(),
			Variables:     variables,
		},
		Options:    opts,
		Descriptor: desc,
	}, nil
}
