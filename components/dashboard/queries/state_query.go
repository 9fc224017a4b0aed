package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// StateInput requests the dashboard snapshot.
type StateInput struct{}

// StateView is what shells need to draw navigation.
type StateView struct {
	Role    dashboard.Role               `json:"role"`
	State   dashboard.NavigationState    `json:"state"`
	Phase   string                       `json:"phase"`
	Menu    []dashboard.MenuItem         `json:"menu"`
	Actions []dashboard.ActionDefinition `json:"actions,omitempty"`
}

type stateSource interface {
	Session() (dashboard.Session, bool)
	State() dashboard.NavigationState
	Menu() []dashboard.MenuItem
	Actions() []dashboard.ActionDefinition
}

// StateQuery reads the navigation snapshot.
type StateQuery struct {
	source stateSource
}

// NewStateQuery builds the query.
func NewStateQuery(source stateSource) *StateQuery {
	return &StateQuery{source: source}
}

var _ gocommand.Querier[StateInput, StateView] = (*StateQuery)(nil)

// Query returns the snapshot. Before boot it reports ErrNotBooted.
func (q *StateQuery) Query(_ context.Context, _ StateInput) (StateView, error) {
	session, ok := q.source.Session()
	if !ok {
		return StateView{}, dashboard.ErrNotBooted
	}
	state := q.source.State()
	return StateView{
		Role:    session.Role,
		State:   state,
		Phase:   state.Phase.String(),
		Menu:    q.source.Menu(),
		Actions: q.source.Actions(),
	}, nil
}
