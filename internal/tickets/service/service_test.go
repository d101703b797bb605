package tickets_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/blob"
	"ms-storefront/internal/clock"
	"ms-storefront/internal/database/testdb"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/notify"
	"ms-storefront/internal/tickets/db"
	"ms-storefront/internal/tickets/qr"
	tickets "ms-storefront/internal/tickets/service"
)

var scanTime = time.Date(2026, 12, 1, 19, 30, 0, 0, time.UTC)

// failingQR fails on the nth encode.
type failingQR struct {
	inner *qr.Generator
	n     int
	calls int
}

func (f *failingQR) Encode(content string) ([]byte, error) {
	f.calls++
	if f.calls == f.n {
		return nil, errors.New("encoder exploded")
	}
	return f.inner.Encode(content)
}

type recordingPublisher struct {
	mu       sync.Mutex
	issued   int
	verified []string
}

func (p *recordingPublisher) TicketsIssued(ctx context.Context, ts []models.Ticket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued += len(ts)
	return nil
}

func (p *recordingPublisher) TicketVerified(ctx context.Context, t models.Ticket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified = append(p.verified, t.TicketNumber)
	return nil
}

type recordingNotifier struct {
	batches []notify.TicketBatch
}

func (n *recordingNotifier) TicketsIssued(ctx context.Context, b notify.TicketBatch) {
	n.batches = append(n.batches, b)
}

func setup(t *testing.T) (*tickets.TicketService, *bun.DB, string) {
	t.Helper()
	bunDB := testdb.New(t)
	dir := t.TempDir()
	store, err := blob.NewLocalStore(dir, "http://localhost:8080/files")
	require.NoError(t, err)
	svc := tickets.NewTicketService(&db.DB{Bun: bunDB}, qr.NewGenerator(), store, clock.NewFixed(scanTime), logger.NewNopLogger())
	return svc, bunDB, dir
}

func issueRequest(qty int, total int64) tickets.IssueRequest {
	return tickets.IssueRequest{
		OrderID:       1,
		OrderNumber:   "LV0001",
		EventID:       7,
		EventName:     "Runway Night",
		CustomerName:  "Ada Obi",
		CustomerEmail: "ada@example.com",
		Quantity:      qty,
		TotalPrice:    total,
	}
}

func TestUnitPrice(t *testing.T) {
	assert.Equal(t, int64(1666), tickets.UnitPrice(5000, 3))
	assert.Equal(t, int64(2500), tickets.UnitPrice(5000, 2))
	assert.Equal(t, int64(0), tickets.UnitPrice(5000, 0))
}

func TestIssueCreatesTicketsWithQRCodes(t *testing.T) {
	svc, bunDB, dir := setup(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, bunDB, issueRequest(3, 5000))
	require.NoError(t, err)
	require.Len(t, issued, 3)

	seen := map[string]bool{}
	for _, tk := range issued {
		assert.Regexp(t, `^LVT[0-9A-F]{32}$`, tk.TicketNumber)
		assert.False(t, seen[tk.TicketNumber])
		seen[tk.TicketNumber] = true

		assert.Equal(t, int64(1666), tk.Price)
		assert.Equal(t, 1, tk.Quantity)
		assert.Equal(t, models.TicketStatusValid, tk.Status)
		assert.Equal(t, "http://localhost:8080/files/qrcodes/"+tk.TicketNumber+".png", tk.QRCode)
		assert.FileExists(t, filepath.Join(dir, "qrcodes", tk.TicketNumber+".png"))
	}

	stored, err := svc.ByOrder(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, issued[0].TicketNumber, stored[0].TicketNumber)
}

func TestIssueIsAllOrNothing(t *testing.T) {
	svc, bunDB, dir := setup(t)
	svc.QR = &failingQR{inner: qr.NewGenerator(), n: 3}
	ctx := context.Background()

	_, err := svc.Issue(ctx, bunDB, issueRequest(4, 8000))
	require.Error(t, err)
	assert.Equal(t, "ticket creation failed", apperr.MessageOf(err))

	stored, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	entries, _ := os.ReadDir(filepath.Join(dir, "qrcodes"))
	assert.Empty(t, entries, "uploaded QR codes are removed")
}

func TestIssueRollsBackWithTransaction(t *testing.T) {
	svc, bunDB, dir := setup(t)
	ctx := context.Background()

	var issued []models.Ticket
	err := bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		issued, err = svc.Issue(ctx, tx, issueRequest(2, 4000))
		require.NoError(t, err)
		return errors.New("order insert failed later")
	})
	require.Error(t, err)
	svc.DiscardQRCodes(ctx, issued)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	for _, tk := range issued {
		assert.NoFileExists(t, filepath.Join(dir, "qrcodes", tk.TicketNumber+".png"))
	}
}

func TestIssuedPublishesAndNotifies(t *testing.T) {
	svc, bunDB, _ := setup(t)
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}
	svc.Publisher = pub
	svc.Notifier = notifier

	req := issueRequest(2, 5000)
	issued, err := svc.Issue(context.Background(), bunDB, req)
	require.NoError(t, err)
	svc.Issued(context.Background(), req, issued)

	assert.Equal(t, 2, pub.issued)
	require.Len(t, notifier.batches, 1)
	assert.Equal(t, "Runway Night", notifier.batches[0].EventName)
	assert.Len(t, notifier.batches[0].Tickets, 2)
}

func TestVerifyLifecycle(t *testing.T) {
	svc, bunDB, _ := setup(t)
	pub := &recordingPublisher{}
	svc.Publisher = pub
	ctx := context.Background()

	issued, err := svc.Issue(ctx, bunDB, issueRequest(2, 2000))
	require.NoError(t, err)
	number := issued[0].TicketNumber

	verified, err := svc.Verify(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusUsed, verified.Status)
	require.NotNil(t, verified.UsedAt)
	assert.True(t, verified.UsedAt.Equal(scanTime))
	assert.Equal(t, []string{number}, pub.verified)

	_, err = svc.Verify(ctx, number)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, "Ticket already used", apperr.MessageOf(err))

	_, err = svc.Verify(ctx, "LVTMISSING")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	other := issued[1].TicketNumber
	cancelled, err := svc.Cancel(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCancelled, cancelled.Status)

	_, err = svc.Verify(ctx, other)
	assert.Equal(t, "Ticket cancelled", apperr.MessageOf(err))

	_, err = svc.Cancel(ctx, number)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestConcurrentScansAdmitOnce(t *testing.T) {
	svc, bunDB, _ := setup(t)
	ctx := context.Background()
	issued, err := svc.Issue(ctx, bunDB, issueRequest(1, 1000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Verify(ctx, issued[0].TicketNumber); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
}

// MockTicketDBLayer drives the degraded read paths.
type MockTicketDBLayer struct {
	mock.Mock
}

func (m *MockTicketDBLayer) CreateTickets(ctx context.Context, idb bun.IDB, ts []models.Ticket) error {
	return m.Called(ts).Error(0)
}

func (m *MockTicketDBLayer) GetByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	args := m.Called(number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) ListAll(ctx context.Context) ([]models.Ticket, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) ListByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) ListByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) MarkUsed(ctx context.Context, number string, at time.Time) (bool, error) {
	args := m.Called(number, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketDBLayer) Cancel(ctx context.Context, number string) (bool, error) {
	args := m.Called(number)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketDBLayer) CountTickets(ctx context.Context) (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func TestReadsDegradeWhenDatabaseUnavailable(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	down := apperr.Unavailable("Database not available", errors.New("dial tcp: refused"))
	mockDB.On("ListAll").Return(nil, down)
	mockDB.On("ListByOrder", int64(5)).Return(nil, down)
	mockDB.On("GetByNumber", "LVT1").Return(nil, down)
	mockDB.On("CountTickets").Return(0, down)

	svc := &tickets.TicketService{DB: mockDB, Logger: logger.NewNopLogger()}
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.ByOrder(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, list)

	tk, err := svc.ByNumber(ctx, "LVT1")
	require.NoError(t, err)
	assert.Nil(t, tk)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Verify(ctx, "LVT1")
	assert.ErrorIs(t, err, apperr.ErrUnavailable, "writes surface the outage")
	mockDB.AssertExpectations(t)
}

func TestVerifyLostRaceReportsCurrentState(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	valid := &models.Ticket{TicketNumber: "LVT1", Status: models.TicketStatusValid}
	cancelled := &models.Ticket{TicketNumber: "LVT1", Status: models.TicketStatusCancelled}
	mockDB.On("GetByNumber", "LVT1").Return(valid, nil).Once()
	mockDB.On("MarkUsed", "LVT1", scanTime).Return(false, nil)
	mockDB.On("GetByNumber", "LVT1").Return(cancelled, nil).Once()

	svc := &tickets.TicketService{DB: mockDB, Clock: clock.NewFixed(scanTime), Logger: logger.NewNopLogger()}
	_, err := svc.Verify(context.Background(), "LVT1")
	assert.Equal(t, "Ticket cancelled", apperr.MessageOf(err))
	mockDB.AssertExpectations(t)
}
