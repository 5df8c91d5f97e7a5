package console

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/domain"
)

// ErrRowUpdating is returned when a row is clicked while its previous update
// is still in flight. The click is not queued.
var ErrRowUpdating = errors.New("row is updating")

// GroupClient is the slice of the REST client the toggle needs.
type GroupClient interface {
	ChangeGroup(ctx context.Context, transactionID string, groupID *string) (*dto.GroupChangeResponse, error)
	GetTransaction(ctx context.Context, id string) (*dto.TransactionResponse, error)
}

// ClickOutcome reports what a row click did.
type ClickOutcome struct {
	// Ignored is set when no group is selected.
	Ignored bool
	Result  domain.GroupChangeStatus
	Message string
	// GroupID is the row's group after the click.
	GroupID *string
}

// GroupToggle assigns transactions to the selected group by clicking rows.
// With no group selected it is idle and clicks are ignored.
type GroupToggle struct {
	client   GroupClient
	logger   zerolog.Logger
	updating *RequestStates[string, struct{}]

	mu       sync.Mutex
	selected *string
	rows     map[string]*string
}

// NewGroupToggle creates an idle toggle.
func NewGroupToggle(client GroupClient, logger zerolog.Logger) *GroupToggle {
	return &GroupToggle{
		client:   client,
		logger:   logger.With().Str("component", "group_toggle").Logger(),
		updating: NewRequestStates[string, struct{}](),
		rows:     make(map[string]*string),
	}
}

// Track registers a row with its current group.
func (g *GroupToggle) Track(transactionID string, groupID *string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows[transactionID] = copyString(groupID)
}

// SelectGroup enters selection mode for groupID. Selecting the active group
// again returns to idle.
func (g *GroupToggle) SelectGroup(groupID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.selected != nil && *g.selected == groupID {
		g.selected = nil
		return
	}
	g.selected = &groupID
}

// Selected returns the selected group, nil when idle.
func (g *GroupToggle) Selected() *string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyString(g.selected)
}

// Group returns the known group of a row.
func (g *GroupToggle) Group(transactionID string) *string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyString(g.rows[transactionID])
}

// IsUpdating reports whether a row has an update in flight.
func (g *GroupToggle) IsUpdating(transactionID string) bool {
	return g.updating.Loading(transactionID)
}

// ClickRow moves a row into the selected group, or out of it when it already
// belongs there. On success the row's group is read back from the server; on
// a warning or error the row keeps its group and the server message is
// returned as is.
func (g *GroupToggle) ClickRow(ctx context.Context, transactionID string) (ClickOutcome, error) {
	g.mu.Lock()
	if g.selected == nil {
		g.mu.Unlock()
		return ClickOutcome{Ignored: true}, nil
	}
	current := copyString(g.rows[transactionID])
	next := domain.NextGroup(current, *g.selected)
	g.mu.Unlock()

	if !g.updating.Begin(transactionID) {
		return ClickOutcome{}, ErrRowUpdating
	}
	defer g.updating.Delete(transactionID)

	resp, err := g.client.ChangeGroup(ctx, transactionID, next)
	if err != nil {
		return ClickOutcome{GroupID: current}, err
	}

	outcome := ClickOutcome{
		Result:  domain.GroupChangeStatus(resp.Result),
		Message: resp.Message,
		GroupID: current,
	}
	if outcome.Result != domain.GroupChangeSuccess {
		return outcome, nil
	}

	outcome.GroupID = g.refetch(ctx, transactionID, resp.GroupID)

	g.mu.Lock()
	g.rows[transactionID] = copyString(outcome.GroupID)
	g.mu.Unlock()

	return outcome, nil
}

func (g *GroupToggle) refetch(ctx context.Context, transactionID string, reported *string) *string {
	tx, err := g.client.GetTransaction(ctx, transactionID)
	if err != nil {
		g.logger.Warn().Err(err).Str("transaction_id", transactionID).Msg("refetching group failed, using reported group")
		return copyString(reported)
	}
	return copyString(tx.GroupID)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
