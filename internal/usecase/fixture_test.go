package usecase_test

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
	"github.com/iho/remitdesk/internal/usecase/mocks"
)

// fixture wires the use cases over in-memory repositories holding one
// scheduled service ("svc-1") and two groups of client "client-1".
type fixture struct {
	services     *mocks.FakeServiceRepository
	commissions  *mocks.FakeCommissionRepository
	transactions *mocks.FakeTransactionRepository
	groups       *mocks.FakeGroupRepository
	outbox       *mocks.FakeOutboxRepository
	txManager    *mocks.FakeTransactionManager

	serviceUC     *usecase.ServiceUseCase
	quoteUC       *usecase.QuoteUseCase
	transactionUC *usecase.TransactionUseCase
	groupUC       *usecase.GroupUseCase
}

func newFixture() *fixture {
	f := &fixture{
		services: mocks.NewFakeServiceRepository(&domain.Service{
			ID:           "svc-1",
			Name:         "Soles to dollars",
			FromCurrency: "PEN",
			ToCurrency:   "USD",
			Kind:         domain.ServiceKindExchange,
			CreatedAt:    time.Now().Add(-24 * time.Hour),
		}),
		commissions:  mocks.NewFakeCommissionRepository(scheduledCommission("svc-1")),
		transactions: mocks.NewFakeTransactionRepository(),
		groups: mocks.NewFakeGroupRepository(
			&domain.TransactionGroup{ID: "grp-3", ClientID: "client-1", Name: "Pending docs", Color: "#f90"},
			&domain.TransactionGroup{ID: "grp-5", ClientID: "client-1", Name: "Urgent", Color: "#ff0000"},
			&domain.TransactionGroup{ID: "grp-9", ClientID: "client-2", Name: "Other", Color: "#000"},
		),
		outbox:    mocks.NewFakeOutboxRepository(),
		txManager: mocks.NewFakeTransactionManager(),
	}

	idGen := mocks.NewFakeIDGenerator()
	resolver := usecase.NewRateScheduleResolver(f.commissions, nil, time.Minute, zerolog.Nop(), nil)

	f.serviceUC = usecase.NewServiceUseCase(f.txManager, f.services, f.commissions, f.outbox, idGen, resolver)
	f.quoteUC = usecase.NewQuoteUseCase(f.serviceUC, resolver, nil)
	f.transactionUC = usecase.NewTransactionUseCase(f.txManager, f.transactions, f.groups, f.outbox, idGen, f.quoteUC, nil)
	f.groupUC = usecase.NewGroupUseCase(f.txManager, f.groups, f.transactions, f.outbox, idGen, zerolog.Nop(), nil)

	return f
}

func strPtr(s string) *string { return &s }
