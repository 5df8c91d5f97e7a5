package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/infrastructure/metrics"
)

// Messages reported back to the operator on group membership updates.
const (
	msgGroupAssigned      = "transaction added to the group"
	msgGroupRemoved       = "transaction removed from the group"
	msgGroupUnchanged     = "transaction already has this group"
	msgGroupNotFound      = "the selected group does not exist"
	msgGroupOtherClient   = "the selected group belongs to a different client"
	msgTransactionMissing = "the transaction does not exist"
	msgTransactionClosed  = "finalized transactions cannot change group"
	msgGroupUpdateFailed  = "the group could not be updated, try again"
)

// GroupUseCase handles transaction groups and membership updates.
type GroupUseCase struct {
	txManager  TransactionManager
	groupRepo  GroupRepository
	txRepo     TransactionRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(
	txManager TransactionManager,
	groupRepo GroupRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *GroupUseCase {
	return &GroupUseCase{
		txManager:  txManager,
		groupRepo:  groupRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		logger:     logger.With().Str("component", "groups").Logger(),
		metrics:    metrics,
	}
}

// CreateGroupInput represents input for creating a group.
type CreateGroupInput struct {
	ClientID string
	Name     string
	Color    string
	Note     string
}

// CreateGroup creates a new transaction group for a client.
func (uc *GroupUseCase) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.TransactionGroup, error) {
	group := &domain.TransactionGroup{
		ID:        uc.idGen.Generate(),
		ClientID:  strings.TrimSpace(input.ClientID),
		Name:      strings.TrimSpace(input.Name),
		Color:     strings.TrimSpace(input.Color),
		Note:      input.Note,
		CreatedAt: time.Now().UTC(),
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.groupRepo.Create(txCtx, tx, group); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   group.ID,
		AggregateType: domain.AggregateTypeGroup,
		EventType:     domain.EventTypeGroupCreated,
		Payload: map[string]any{
			"group_id":  group.ID,
			"client_id": group.ClientID,
			"name":      group.Name,
			"color":     group.Color,
		},
		CreatedAt: group.CreatedAt,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.GroupsCreated.Inc()
	}

	return group, nil
}

// ListGroups lists the groups of a client.
func (uc *GroupUseCase) ListGroups(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error) {
	return uc.groupRepo.ListByClient(ctx, clientID)
}

// ChangeGroupInput represents a membership update. A nil GroupID removes the
// transaction from its group.
type ChangeGroupInput struct {
	TransactionID string
	GroupID       *string
}

// ChangeGroup sets the group of a transaction. Failures are reported in the
// result rather than as errors: business-rule conflicts as warnings, missing
// records and persistence failures as errors.
func (uc *GroupUseCase) ChangeGroup(ctx context.Context, input ChangeGroupInput) domain.GroupChangeResult {
	result := uc.changeGroup(ctx, input)

	if uc.metrics != nil {
		uc.metrics.GroupChanges.WithLabelValues(string(result.Result)).Inc()
	}

	return result
}

func (uc *GroupUseCase) changeGroup(ctx context.Context, input ChangeGroupInput) domain.GroupChangeResult {
	log := uc.logger.With().Str("transaction_id", input.TransactionID).Logger()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		log.Error().Err(err).Msg("begin group change")
		return failed(domain.GroupChangeError, msgGroupUpdateFailed, nil)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transaction, err := uc.txRepo.GetByIDForUpdate(txCtx, tx, input.TransactionID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return failed(domain.GroupChangeError, msgTransactionMissing, nil)
	}
	if err != nil {
		log.Error().Err(err).Msg("load transaction for group change")
		return failed(domain.GroupChangeError, msgGroupUpdateFailed, nil)
	}

	current := transaction.GroupID

	if !transaction.IsEditable() {
		return failed(domain.GroupChangeWarning, msgTransactionClosed, current)
	}

	if input.GroupID != nil {
		group, err := uc.groupRepo.GetByID(txCtx, *input.GroupID)
		if errors.Is(err, domain.ErrGroupNotFound) {
			return failed(domain.GroupChangeError, msgGroupNotFound, current)
		}
		if err != nil {
			log.Error().Err(err).Msg("load group for group change")
			return failed(domain.GroupChangeError, msgGroupUpdateFailed, current)
		}
		if group.ClientID != transaction.ClientID {
			return failed(domain.GroupChangeWarning, msgGroupOtherClient, current)
		}
	}

	if domain.SameGroup(current, input.GroupID) {
		return domain.GroupChangeResult{Result: domain.GroupChangeSuccess, Message: msgGroupUnchanged, GroupID: current}
	}

	now := time.Now().UTC()
	if err := uc.txRepo.UpdateGroup(txCtx, tx, transaction.ID, input.GroupID, now); err != nil {
		log.Error().Err(err).Msg("update transaction group")
		return failed(domain.GroupChangeError, msgGroupUpdateFailed, current)
	}

	payload := map[string]any{
		"transaction_id": transaction.ID,
		"client_id":      transaction.ClientID,
		"group_id":       nil,
		"previous_group": nil,
	}
	if input.GroupID != nil {
		payload["group_id"] = *input.GroupID
	}
	if current != nil {
		payload["previous_group"] = *current
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transaction.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionGroupChanged,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		log.Error().Err(err).Msg("record group change event")
		return failed(domain.GroupChangeError, msgGroupUpdateFailed, current)
	}

	if err := tx.Commit(txCtx); err != nil {
		log.Error().Err(err).Msg("commit group change")
		return failed(domain.GroupChangeError, msgGroupUpdateFailed, current)
	}

	message := msgGroupAssigned
	if input.GroupID == nil {
		message = msgGroupRemoved
	}

	return domain.GroupChangeResult{Result: domain.GroupChangeSuccess, Message: message, GroupID: input.GroupID}
}

func failed(status domain.GroupChangeStatus, message string, groupID *string) domain.GroupChangeResult {
	return domain.GroupChangeResult{Result: status, Message: message, GroupID: groupID}
}
