// Package conference is a hand-written exemplar of generated code-gen
// output (spec §6.1), implementing the Conference{id,name,city,
// talks:[Talk]} / Talk{id,title} schema used throughout spec.md §8's
// end-to-end scenarios. Shaped after the original source's
// artemis-tests/src/queries/get_conference.rs generated-query layout,
// translated into Go structs implementing selection.Descriptor.
package conference

import (
	"gqlcache/codegen"
	"gqlcache/domain/operation"
	"gqlcache/domain/selection"
)

func talkSelection() []selection.Selector {
	return []selection.Selector{
		selection.ScalarField("id", ""),
		selection.ScalarField("title", ""),
	}
}

func conferenceSelection() []selection.Selector {
	return []selection.Selector{
		selection.ScalarField("id", ""),
		selection.ScalarField("name", ""),
		selection.ScalarField("city", ""),
		selection.ObjectField("talks", "", "Talk", talkSelection()),
	}
}

// GetConferenceQuery implements spec §8 scenarios 1, 2, 4, 5: look up a
// single conference by id.
type GetConferenceQuery struct {
	codegen.Base
	ID string
}

// NewGetConferenceQuery builds the descriptor for a given conference id.
func NewGetConferenceQuery(id string) *GetConferenceQuery {
	return &GetConferenceQuery{
		Base: codegen.Base{
			Name:   "GetConference",
			Text:   "query GetConference($id: ID!) { conference(id: $id) { id name city talks { id title } } }",
			OpType: operation.TypeQuery,
			Types:  []string{"Conference", "Talk"},
		},
		ID: id,
	}
}

func (q *GetConferenceQuery) BuildVariables() (map[string]interface{}, error) {
	return map[string]interface{}{"id": q.ID}, nil
}

func (q *GetConferenceQuery) Selection() []selection.Selector {
	return []selection.Selector{
		selection.ObjectField("conference", "id="+q.ID, "Conference", conferenceSelection()),
	}
}

func (q *GetConferenceQuery) NewResponse() interface{} {
	return map[string]interface{}{}
}

// GetConferencesQuery implements spec §8 scenario 3: a list query whose
// result a mutation's update closure amends imperatively.
type GetConferencesQuery struct {
	codegen.Base
}

// NewGetConferencesQuery builds the descriptor for the conference list.
func NewGetConferencesQuery() *GetConferencesQuery {
	return &GetConferencesQuery{
		Base: codegen.Base{
			Name:   "GetConferences",
			Text:   "query GetConferences { conferences { id name city talks { id title } } }",
			OpType: operation.TypeQuery,
			Types:  []string{"Conference", "Talk"},
		},
	}
}

func (q *GetConferencesQuery) BuildVariables() (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (q *GetConferencesQuery) Selection() []selection.Selector {
	return []selection.Selector{
		selection.ObjectField("conferences", "", "Conference", conferenceSelection()),
	}
}

func (q *GetConferencesQuery) NewResponse() interface{} {
	return map[string]interface{}{}
}

// AddConferenceMutation implements spec §8 scenarios 3, 4, 5: creates a
// conference, optionally carrying an optimistic_result and an update
// closure via its Extensions.
type AddConferenceMutation struct {
	codegen.Base
	ConferenceName string
}

// NewAddConferenceMutation builds the descriptor for creating a
// conference with the given name.
func NewAddConferenceMutation(name string) *AddConferenceMutation {
	return &AddConferenceMutation{
		Base: codegen.Base{
			Name:   "AddConference",
			Text:   "mutation AddConference($name: String!) { addConference(name: $name) { id name city talks { id title } } }",
			OpType: operation.TypeMutation,
			Types:  []string{"Conference"},
		},
		ConferenceName: name,
	}
}

func (m *AddConferenceMutation) BuildVariables() (map[string]interface{}, error) {
	return map[string]interface{}{"name": m.ConferenceName}, nil
}

func (m *AddConferenceMutation) Selection() []selection.Selector {
	return []selection.Selector{
		selection.ObjectField("addConference", "name="+m.ConferenceName, "Conference", conferenceSelection()),
	}
}

func (m *AddConferenceMutation) NewResponse() interface{} {
	return map[string]interface{}{}
}
