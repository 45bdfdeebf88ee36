// Package testutil provides map-backed mock implementations of the
// repository interfaces for service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surendharS49/MotoCredit--sub000/internal/domain"
)

// MockTxManager runs the transactional closure directly against the mocks.
type MockTxManager struct {
	BeginErr error
}

// NewMockTxManager creates a new MockTxManager
func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(tx any) error) error {
	if m.BeginErr != nil {
		return m.BeginErr
	}
	return fn(struct{}{})
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans map[string]*domain.Loan

	CreateFn        func(loan *domain.Loan) (*domain.Loan, error)
	UpdateDerivedFn func(loan *domain.Loan) error
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{Loans: make(map[string]*domain.Loan)}
}

// AddLoan adds a loan to the mock repository (helper for tests)
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	if loan.Payments == nil {
		loan.Payments = []string{}
	}
	m.Loans[loan.LoanID] = loan
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateFn != nil {
		return m.CreateFn(loan)
	}
	if _, exists := m.Loans[loan.LoanID]; exists {
		return nil, domain.ErrLoanAlreadyExists
	}
	stored := *loan
	stored.Payments = append([]string{}, loan.Payments...)
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Loans[stored.LoanID] = &stored
	return &stored, nil
}

func (m *MockLoanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, ok := m.Loans[loanID]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

func (m *MockLoanRepository) GetAll(ctx context.Context) ([]*domain.Loan, error) {
	loans := []*domain.Loan{}
	for _, loan := range m.Loans {
		loans = append(loans, loan)
	}
	return loans, nil
}

func (m *MockLoanRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Loan, error) {
	for _, loan := range m.Loans {
		if loan.HasPayment(paymentID) {
			return loan, nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) GetForUpdateTx(ctx context.Context, tx any, loanID string) (*domain.Loan, error) {
	return m.GetByLoanID(ctx, loanID)
}

func (m *MockLoanRepository) UpdateDerivedTx(ctx context.Context, tx any, loan *domain.Loan) error {
	if m.UpdateDerivedFn != nil {
		return m.UpdateDerivedFn(loan)
	}
	stored, ok := m.Loans[loan.LoanID]
	if !ok {
		return domain.ErrLoanNotFound
	}
	stored.AmountPaid = loan.AmountPaid
	stored.NextDueDate = loan.NextDueDate
	stored.Status = loan.Status
	stored.Payments = append([]string{}, loan.Payments...)
	stored.UpdatedAt = time.Now()
	return nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments map[string]*domain.Payment

	CreateFn func(payment *domain.Payment) (*domain.Payment, error)
	UpdateFn func(payment *domain.Payment) (*domain.Payment, error)
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{Payments: make(map[string]*domain.Payment)}
}

// AddPayment adds a payment to the mock repository (helper for tests)
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.Payments[payment.PaymentID] = payment
}

func (m *MockPaymentRepository) CreateTx(ctx context.Context, tx any, payment *domain.Payment) (*domain.Payment, error) {
	if m.CreateFn != nil {
		return m.CreateFn(payment)
	}
	stored := *payment
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Payments[stored.PaymentID] = &stored
	return &stored, nil
}

func (m *MockPaymentRepository) UpdateTx(ctx context.Context, tx any, payment *domain.Payment) (*domain.Payment, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(payment)
	}
	stored, ok := m.Payments[payment.PaymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	*stored = *payment
	stored.UpdatedAt = time.Now()
	return stored, nil
}

func (m *MockPaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, ok := m.Payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

func (m *MockPaymentRepository) GetLiveByLoanAndInstallment(ctx context.Context, loanID string, installment int32) (*domain.Payment, error) {
	for _, p := range m.Payments {
		if p.LoanID == loanID && p.InstallmentNumber == installment && p.Live() {
			return p, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) GetLiveByLoanAndInstallmentTx(ctx context.Context, tx any, loanID string, installment int32) (*domain.Payment, error) {
	return m.GetLiveByLoanAndInstallment(ctx, loanID, installment)
}

func (m *MockPaymentRepository) GetLiveByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	live := []*domain.Payment{}
	for _, p := range m.Payments {
		if p.LoanID == loanID && p.Live() {
			live = append(live, p)
		}
	}
	return live, nil
}

func (m *MockPaymentRepository) GetLiveByLoanIDTx(ctx context.Context, tx any, loanID string) ([]*domain.Payment, error) {
	return m.GetLiveByLoanID(ctx, loanID)
}

func (m *MockPaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	payments := []*domain.Payment{}
	for _, p := range m.Payments {
		payments = append(payments, p)
	}
	return payments, nil
}

func (m *MockPaymentRepository) SumLiveAmountTx(ctx context.Context, tx any, loanID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range m.Payments {
		if p.LoanID == loanID && p.Live() {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

// MockAuditLogRepository is a mock implementation of domain.AuditLogRepository
type MockAuditLogRepository struct {
	Entries []*domain.AuditLog

	CreateFn func(entry *domain.AuditLog) (*domain.AuditLog, error)
}

// NewMockAuditLogRepository creates a new MockAuditLogRepository
func NewMockAuditLogRepository() *MockAuditLogRepository {
	return &MockAuditLogRepository{Entries: []*domain.AuditLog{}}
}

func (m *MockAuditLogRepository) CreateTx(ctx context.Context, tx any, entry *domain.AuditLog) (*domain.AuditLog, error) {
	if m.CreateFn != nil {
		return m.CreateFn(entry)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = time.Now().UTC()
	}
	m.Entries = append(m.Entries, entry)
	return entry, nil
}

func (m *MockAuditLogRepository) GetByLoanID(ctx context.Context, loanID string, actions []domain.AuditAction) ([]*domain.AuditLog, error) {
	wanted := func(a domain.AuditAction) bool {
		if len(actions) == 0 {
			return true
		}
		for _, want := range actions {
			if a == want {
				return true
			}
		}
		return false
	}

	// Appended in chronological order; return newest first.
	entries := []*domain.AuditLog{}
	for i := len(m.Entries) - 1; i >= 0; i-- {
		entry := m.Entries[i]
		if entry.LoanID == loanID && wanted(entry.Action) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// ByAction returns the mock's entries with the given action (helper for tests)
func (m *MockAuditLogRepository) ByAction(action domain.AuditAction) []*domain.AuditLog {
	entries := []*domain.AuditLog{}
	for _, entry := range m.Entries {
		if entry.Action == action {
			entries = append(entries, entry)
		}
	}
	return entries
}

// MockAdminRepository is a mock implementation of domain.AdminRepository
type MockAdminRepository struct {
	Admins map[string]*domain.Admin
}

// NewMockAdminRepository creates a new MockAdminRepository
func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{Admins: make(map[string]*domain.Admin)}
}

func (m *MockAdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	admin, ok := m.Admins[email]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	return admin, nil
}

// MockIdentifierStore is a mock implementation of idgen.Store
type MockIdentifierStore struct {
	MaxByPrefix map[string]int64
	Taken       map[string]bool
}

// NewMockIdentifierStore creates a new MockIdentifierStore
func NewMockIdentifierStore() *MockIdentifierStore {
	return &MockIdentifierStore{
		MaxByPrefix: make(map[string]int64),
		Taken:       make(map[string]bool),
	}
}

func (m *MockIdentifierStore) MaxSequence(ctx context.Context, prefix string) (int64, error) {
	return m.MaxByPrefix[prefix], nil
}

func (m *MockIdentifierStore) Exists(ctx context.Context, id string) (bool, error) {
	return m.Taken[id], nil
}

// MockDocumentRepository is a mock implementation of storage.DocumentRepository
type MockDocumentRepository struct {
	Objects map[string][]byte

	UploadErr error
}

// NewMockDocumentRepository creates a new MockDocumentRepository
func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{Objects: make(map[string][]byte)}
}

func (m *MockDocumentRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = buf
	return objectPath, nil
}

func (m *MockDocumentRepository) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	return nil
}

func (m *MockDocumentRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.local/%s?expires=%d", objectPath, int64(expiry.Seconds())), nil
}
