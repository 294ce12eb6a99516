package dormly_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	dormly "github.com/dormly/go-dormly"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOtpEmail(ctx context.Context, toEmail, code, verificationURL string) error {
	args := m.Called(ctx, toEmail, code, verificationURL)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, toEmail, code string) error {
	args := m.Called(ctx, toEmail, code)
	return args.Error(0)
}

// capturingMailer records dispatched codes so tests can replay them the way
// a user reading their inbox would.
type capturingMailer struct {
	otpCodes   []string
	resetCodes []string
	failNext   bool
}

func (m *capturingMailer) SendOtpEmail(ctx context.Context, toEmail, code, verificationURL string) error {
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("smtp unavailable")
	}
	m.otpCodes = append(m.otpCodes, code)
	return nil
}

func (m *capturingMailer) SendPasswordResetEmail(ctx context.Context, toEmail, code string) error {
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("smtp unavailable")
	}
	m.resetCodes = append(m.resetCodes, code)
	return nil
}

func (m *capturingMailer) lastOtp(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.otpCodes, "expected an OTP email to have been sent")
	return m.otpCodes[len(m.otpCodes)-1]
}

func (m *capturingMailer) lastReset(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.resetCodes, "expected a reset email to have been sent")
	return m.resetCodes[len(m.resetCodes)-1]
}

var dbCounter atomic.Int64

// newTestRepo opens a fresh in-memory database with the schema applied.
func newTestRepo(t *testing.T) dormly.RepositoryManager {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := dormly.OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, dormly.ResetSchema(context.Background(), db))

	return dormly.NewRepositoryManager(db)
}
