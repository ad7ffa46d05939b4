// Package entity defines the normalized cache's unit of storage: entity
// keys, field keys, and links between entities.
package entity

import "fmt"

// Key identifies a row in the store: "Typename:id", or a root operation
// type name ("Query", "Mutation", "Subscription").
type Key string

// RootQuery, RootMutation and RootSubscription are the synthetic entity
// keys for the three root operation types.
const (
	RootQuery        Key = "Query"
	RootMutation     Key = "Mutation"
	RootSubscription Key = "Subscription"
)

// RootKey returns the root entity key for an operation type name, one of
// "Query", "Mutation" or "Subscription" (matched case-sensitively; any
// other value yields RootQuery).
func RootKey(operationType string) Key {
	switch operationType {
	case "Mutation":
		return RootMutation
	case "Subscription":
		return RootSubscription
	default:
		return RootQuery
	}
}

// Make builds an entity key from a GraphQL typename and an id value.
func Make(typename string, id interface{}) Key {
	return Key(fmt.Sprintf("%s:%v", typename, id))
}

// FieldKey identifies a slot within an entity: a field name plus a
// deterministic fingerprint of the arguments passed to it.
type FieldKey struct {
	Name            string
	ArgsFingerprint string
}

// String renders the field key for use as a map key / log field.
func (f FieldKey) String() string {
	if f.ArgsFingerprint == "" {
		return f.Name
	}
	return f.Name + "(" + f.ArgsFingerprint + ")"
}

// LinkKind distinguishes the three shapes a Link can take.
type LinkKind int

const (
	LinkNull LinkKind = iota
	LinkSingle
	LinkList
)

// Link is a reference from one entity's field to zero, one, or many
// other entities.
type Link struct {
	Kind   LinkKind
	Single Key
	List   []Key
}

// NullLink constructs a null link.
func NullLink() Link { return Link{Kind: LinkNull} }

// SingleLink constructs a link to exactly one entity.
func SingleLink(k Key) Link { return Link{Kind: LinkSingle, Single: k} }

// ListLink constructs a link to an ordered list of entities.
func ListLink(ks []Key) Link { return Link{Kind: LinkList, List: ks} }

// Keys returns every entity key this link references, in order.
func (l Link) Keys() []Key {
	switch l.Kind {
	case LinkSingle:
		return []Key{l.Single}
	case LinkList:
		return l.List
	default:
		return nil
	}
}
