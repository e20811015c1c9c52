package usecases

import (
	"context"

	"evalia/internal/domain/credit"
	"evalia/internal/domain/shared/events"
)

type mockUsageControlRepository struct {
	GetBySubjectFunc                  func(ctx context.Context, subjectID string) (*credit.UsageControl, error)
	GetBySubjectIncludingInactiveFunc func(ctx context.Context, subjectID string) (*credit.UsageControl, error)
	SaveFunc                          func(ctx context.Context, control *credit.UsageControl) error
	ConsumeOneFunc                    func(ctx context.Context, subjectID string) (*credit.ConsumeResult, error)
	ListActiveFunc                    func(ctx context.Context) ([]*credit.UsageControl, error)
}

func (m *mockUsageControlRepository) GetBySubject(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
	if m.GetBySubjectFunc != nil {
		return m.GetBySubjectFunc(ctx, subjectID)
	}
	return nil, credit.ErrControlNotFound
}

func (m *mockUsageControlRepository) GetBySubjectIncludingInactive(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
	if m.GetBySubjectIncludingInactiveFunc != nil {
		return m.GetBySubjectIncludingInactiveFunc(ctx, subjectID)
	}
	return nil, credit.ErrControlNotFound
}

func (m *mockUsageControlRepository) Save(ctx context.Context, control *credit.UsageControl) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, control)
	}
	return nil
}

func (m *mockUsageControlRepository) ConsumeOne(ctx context.Context, subjectID string) (*credit.ConsumeResult, error) {
	if m.ConsumeOneFunc != nil {
		return m.ConsumeOneFunc(ctx, subjectID)
	}
	return nil, credit.ErrControlNotFound
}

func (m *mockUsageControlRepository) ListActive(ctx context.Context) ([]*credit.UsageControl, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

type mockLedgerEntryRepository struct {
	AppendFunc          func(ctx context.Context, entry *credit.LedgerEntry) error
	ListBySubjectFunc   func(ctx context.Context, subjectID string, limit int) ([]*credit.LedgerEntry, error)
	ListRecentFunc      func(ctx context.Context, limit int) ([]*credit.LedgerEntry, error)
	SumBySubjectFunc    func(ctx context.Context, subjectID string) (credit.LedgerTotals, error)
	DeleteBySubjectFunc func(ctx context.Context, subjectID string) (int64, error)
}

func (m *mockLedgerEntryRepository) Append(ctx context.Context, entry *credit.LedgerEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	return nil
}

func (m *mockLedgerEntryRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*credit.LedgerEntry, error) {
	if m.ListBySubjectFunc != nil {
		return m.ListBySubjectFunc(ctx, subjectID, limit)
	}
	return nil, nil
}

func (m *mockLedgerEntryRepository) ListRecent(ctx context.Context, limit int) ([]*credit.LedgerEntry, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockLedgerEntryRepository) SumBySubject(ctx context.Context, subjectID string) (credit.LedgerTotals, error) {
	if m.SumBySubjectFunc != nil {
		return m.SumBySubjectFunc(ctx, subjectID)
	}
	return credit.LedgerTotals{}, nil
}

func (m *mockLedgerEntryRepository) DeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	if m.DeleteBySubjectFunc != nil {
		return m.DeleteBySubjectFunc(ctx, subjectID)
	}
	return 0, nil
}

// mockTxManager runs the function directly without a real transaction
type mockTxManager struct {
	RunInTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTransactionFunc != nil {
		return m.RunInTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockBalanceReader struct {
	SnapshotFunc func(ctx context.Context, subjectID string) (*credit.UsageControl, error)
}

func (m *mockBalanceReader) Snapshot(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx, subjectID)
	}
	return nil, credit.ErrControlNotFound
}

type mockStatsRepository struct {
	GetSubjectStatsFunc func(ctx context.Context) ([]credit.SubjectStats, error)
}

func (m *mockStatsRepository) GetSubjectStats(ctx context.Context) ([]credit.SubjectStats, error) {
	if m.GetSubjectStatsFunc != nil {
		return m.GetSubjectStatsFunc(ctx)
	}
	return nil, nil
}

// mockEventPublisher records published events
type mockEventPublisher struct {
	published []events.DomainEvent
	err       error
}

func (m *mockEventPublisher) Publish(event events.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, event)
	return nil
}

func (m *mockEventPublisher) PublishAll(evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := m.Publish(e); err != nil {
			return err
		}
	}
	return nil
}
