package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) *time.Time {
	t := time.Date(2024, 3, d, 9, 30, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }

type fakeSource struct {
	mu        sync.Mutex
	base      decimal.Decimal
	baseErr   error
	baseCalls int
	dayCalls  int
	byDay     func(ctx context.Context, end time.Time) (decimal.Decimal, error)
}

func (f *fakeSource) BaseCommission(ctx context.Context, serviceID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baseCalls++
	return f.base, f.baseErr
}

func (f *fakeSource) CommissionByDay(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	f.dayCalls++
	byDay := f.byDay
	f.mu.Unlock()
	if byDay == nil {
		return decimal.Zero, nil
	}
	return byDay(ctx, *maxDate)
}

func (f *fakeSource) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.baseCalls, f.dayCalls
}

func TestRequestStates(t *testing.T) {
	s := NewRequestStates[string, int]()

	_, ok := s.Get("a")
	assert.False(t, ok)

	require.True(t, s.Begin("a"))
	assert.False(t, s.Begin("a"), "second begin while loading")
	assert.True(t, s.Loading("a"))

	s.Resolve("a", 7)
	st, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, StatusReady, st.Status)
	assert.Equal(t, 7, st.Value)

	require.True(t, s.Begin("a"))
	s.Fail("a", errors.New("boom"))
	st, _ = s.Get("a")
	assert.Equal(t, StatusFailed, st.Status)
	assert.EqualError(t, st.Err, "boom")

	s.Delete("a")
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestResolutionTrackerDropsSuperseded(t *testing.T) {
	tr := NewResolutionTracker()

	first := tr.Begin("slot", "a")
	second := tr.Begin("slot", "b")
	other := tr.Begin("other", "a")

	assert.Greater(t, second.Token, first.Token)
	assert.False(t, tr.IsCurrent(first))
	assert.True(t, tr.IsCurrent(second))
	assert.True(t, tr.IsCurrent(other))

	applied := ""
	assert.True(t, tr.Complete(second, func() { applied = "b" }))
	assert.False(t, tr.Complete(first, func() { applied = "a" }))
	assert.Equal(t, "b", applied)
}

func TestDraftPreview(t *testing.T) {
	src := &fakeSource{
		base: dec("2"),
		byDay: func(ctx context.Context, end time.Time) (decimal.Decimal, error) {
			return dec("1"), nil
		},
	}
	d := NewDraft(src, zerolog.Nop())
	ctx := context.Background()

	face := dec("1000")
	d.SetFaceAmount(&face)
	d.SetDelta(dec("0.5"))
	d.SetService(ctx, "svc-1")
	d.SetDates(ctx, day(1), day(11))
	d.Wait()

	q := d.Preview()
	require.Equal(t, domain.QuoteReady, q.Status)
	assert.True(t, q.EffectivePercentage.Equal(dec("3.5")))
	assert.True(t, q.Settlement.CommissionAmount.Equal(dec("35")))
	assert.True(t, q.Settlement.NetAmount.Equal(dec("965")))

	d.SetDiscountMode(true)
	q = d.Preview()
	require.Equal(t, domain.QuoteReady, q.Status)
	assert.Equal(t, "966.18", domain.RoundMoney(q.Settlement.NetAmount).StringFixed(2))
}

func TestDraftCachesBasePerService(t *testing.T) {
	src := &fakeSource{base: dec("2")}
	d := NewDraft(src, zerolog.Nop())
	ctx := context.Background()

	d.SetService(ctx, "svc-1")
	d.Wait()
	d.SetService(ctx, "svc-1")
	d.Wait()

	baseCalls, _ := src.calls()
	assert.Equal(t, 1, baseCalls)
}

func TestDraftBaseFailureResolvesToZero(t *testing.T) {
	src := &fakeSource{baseErr: errors.New("unreachable")}
	d := NewDraft(src, zerolog.Nop())

	face := dec("100")
	d.SetFaceAmount(&face)
	d.SetService(context.Background(), "svc-1")
	d.Wait()

	q := d.Preview()
	require.Equal(t, domain.QuoteReady, q.Status)
	assert.True(t, q.Terms.Base.IsZero())
}

func TestDraftMissingDateSkipsLookup(t *testing.T) {
	src := &fakeSource{base: dec("1")}
	d := NewDraft(src, zerolog.Nop())
	ctx := context.Background()

	d.SetService(ctx, "svc-1")
	d.SetDates(ctx, day(1), nil)
	d.Wait()

	_, dayCalls := src.calls()
	assert.Equal(t, 0, dayCalls)
	assert.True(t, d.Preview().Terms.WaitingDays.IsZero())
}

func TestDraftDropsStaleWaitingDays(t *testing.T) {
	gates := map[int]chan decimal.Decimal{
		5:  make(chan decimal.Decimal),
		11: make(chan decimal.Decimal),
	}
	src := &fakeSource{
		byDay: func(ctx context.Context, end time.Time) (decimal.Decimal, error) {
			return <-gates[end.Day()], nil
		},
	}
	d := NewDraft(src, zerolog.Nop())
	ctx := context.Background()

	face := dec("1000")
	d.SetFaceAmount(&face)
	d.SetService(ctx, "svc-1")
	d.SetDates(ctx, day(1), day(5))
	d.SetDates(ctx, day(1), day(11))

	assert.Equal(t, domain.QuotePending, d.Preview().Status)

	gates[11] <- dec("1.5")
	require.Eventually(t, func() bool {
		return d.Preview().Status == domain.QuoteReady
	}, time.Second, 5*time.Millisecond)

	gates[5] <- dec("0.25")
	d.Wait()

	q := d.Preview()
	assert.True(t, q.Terms.WaitingDays.Equal(dec("1.5")), "got %s", q.Terms.WaitingDays)
}

func TestDraftInvalidPercentageAndUnavailable(t *testing.T) {
	d := NewDraft(&fakeSource{}, zerolog.Nop())

	assert.Equal(t, domain.QuoteUnavailable, d.Preview().Status)

	face := dec("100")
	d.SetFaceAmount(&face)
	d.SetDiscountMode(true)
	d.SetDelta(dec("-100"))
	assert.Equal(t, domain.QuoteInvalidPercentage, d.Preview().Status)
}

func TestDraftDestinationBalance(t *testing.T) {
	d := NewDraft(&fakeSource{}, zerolog.Nop())

	face := dec("1000")
	d.SetFaceAmount(&face)
	d.SetDelta(dec("1"))
	d.SetDestination(`{"type":"bank","items":[{"amount":"500"},{"amount":"600"}]}`)

	q := d.Preview()
	require.NotNil(t, q.Balance)
	assert.True(t, q.Balance.OverAllocated)
	assert.True(t, q.Balance.TotalAllocated.Equal(dec("1100")))
	assert.True(t, q.Balance.Remainder.IsZero())
}

type fakeGroupClient struct {
	mu       sync.Mutex
	change   func(txID string, groupID *string) (*dto.GroupChangeResponse, error)
	server   map[string]*string
	getErr   error
	requests []*string
}

func (f *fakeGroupClient) ChangeGroup(ctx context.Context, txID string, groupID *string) (*dto.GroupChangeResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, groupID)
	change := f.change
	f.mu.Unlock()
	return change(txID, groupID)
}

func (f *fakeGroupClient) GetTransaction(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dto.TransactionResponse{ID: id, GroupID: f.server[id]}, nil
}

func succeedingClient() *fakeGroupClient {
	f := &fakeGroupClient{server: map[string]*string{}}
	f.change = func(txID string, groupID *string) (*dto.GroupChangeResponse, error) {
		f.mu.Lock()
		f.server[txID] = groupID
		f.mu.Unlock()
		return &dto.GroupChangeResponse{Result: "success", Message: "group updated", GroupID: groupID}, nil
	}
	return f
}

func TestGroupToggleSelection(t *testing.T) {
	g := NewGroupToggle(succeedingClient(), zerolog.Nop())

	assert.Nil(t, g.Selected())
	g.SelectGroup("g1")
	assert.Equal(t, "g1", *g.Selected())
	g.SelectGroup("g2")
	assert.Equal(t, "g2", *g.Selected())
	g.SelectGroup("g2")
	assert.Nil(t, g.Selected())
}

func TestGroupToggleIdleIgnoresClicks(t *testing.T) {
	client := succeedingClient()
	g := NewGroupToggle(client, zerolog.Nop())
	g.Track("tx-1", nil)

	out, err := g.ClickRow(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.True(t, out.Ignored)
	assert.Empty(t, client.requests)
}

func TestGroupToggleAssignsAndUnassigns(t *testing.T) {
	client := succeedingClient()
	g := NewGroupToggle(client, zerolog.Nop())
	ctx := context.Background()

	g.Track("tx-1", nil)
	g.SelectGroup("g1")

	out, err := g.ClickRow(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupChangeSuccess, out.Result)
	require.NotNil(t, g.Group("tx-1"))
	assert.Equal(t, "g1", *g.Group("tx-1"))

	out, err = g.ClickRow(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupChangeSuccess, out.Result)
	assert.Nil(t, g.Group("tx-1"))
	assert.Nil(t, client.requests[1])

	assert.Equal(t, "g1", *g.Selected(), "selection stays active")
}

func TestGroupToggleWarningKeepsRow(t *testing.T) {
	client := &fakeGroupClient{server: map[string]*string{}}
	client.change = func(txID string, groupID *string) (*dto.GroupChangeResponse, error) {
		return &dto.GroupChangeResponse{Result: "warning", Message: "transaction is finalized", GroupID: strPtr("g0")}, nil
	}
	g := NewGroupToggle(client, zerolog.Nop())
	g.Track("tx-1", strPtr("g0"))
	g.SelectGroup("g1")

	out, err := g.ClickRow(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupChangeWarning, out.Result)
	assert.Equal(t, "transaction is finalized", out.Message)
	assert.Equal(t, "g0", *g.Group("tx-1"))
	assert.False(t, g.IsUpdating("tx-1"))
}

func TestGroupToggleTransportErrorReleasesRow(t *testing.T) {
	client := &fakeGroupClient{}
	client.change = func(txID string, groupID *string) (*dto.GroupChangeResponse, error) {
		return nil, errors.New("connection refused")
	}
	g := NewGroupToggle(client, zerolog.Nop())
	g.SelectGroup("g1")

	_, err := g.ClickRow(context.Background(), "tx-1")
	assert.Error(t, err)
	assert.False(t, g.IsUpdating("tx-1"))
	assert.Nil(t, g.Group("tx-1"))
}

func TestGroupToggleRejectsClickWhileUpdating(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	client := succeedingClient()
	inner := client.change
	client.change = func(txID string, groupID *string) (*dto.GroupChangeResponse, error) {
		close(entered)
		<-release
		return inner(txID, groupID)
	}
	g := NewGroupToggle(client, zerolog.Nop())
	g.SelectGroup("g1")

	done := make(chan error, 1)
	go func() {
		_, err := g.ClickRow(context.Background(), "tx-1")
		done <- err
	}()

	<-entered
	assert.True(t, g.IsUpdating("tx-1"))
	_, err := g.ClickRow(context.Background(), "tx-1")
	assert.ErrorIs(t, err, ErrRowUpdating)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, g.IsUpdating("tx-1"))
	assert.Len(t, client.requests, 1)
}

func TestGroupToggleRefetchFailureUsesReportedGroup(t *testing.T) {
	client := succeedingClient()
	client.getErr = errors.New("timeout")
	g := NewGroupToggle(client, zerolog.Nop())
	g.SelectGroup("g1")

	out, err := g.ClickRow(context.Background(), "tx-1")
	require.NoError(t, err)
	require.NotNil(t, out.GroupID)
	assert.Equal(t, "g1", *out.GroupID)
}
