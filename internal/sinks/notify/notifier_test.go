package notify

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoice-intake/internal/common/errors"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/sinks"
)

type mockEmail struct{ mock.Mock }

func (m *mockEmail) SendPlainText(ctx context.Context, from, to, subject, body string) (string, error) {
	args := m.Called(ctx, from, to, subject, body)
	return args.String(0), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishToTopic(ctx context.Context, topicARN, subject, message string) (string, error) {
	args := m.Called(ctx, topicARN, subject, message)
	return args.String(0), args.Error(1)
}

func TestSendReceipt(t *testing.T) {
	email := new(mockEmail)
	email.On("SendPlainText", mock.Anything, "noreply@example.com", "jane@example.com",
		"Invoice received: Jane - Rewards - November 2024",
		mock.MatchedBy(func(body string) bool {
			return assert.Contains(t, body, "Invoice number: DR-DENT-1") && assert.Contains(t, body, "Reference: page-1")
		})).Return("msg-1", nil)

	n := NewWithClients(email, "noreply@example.com", nil, "", logger.NewTestLogger(t))
	err := n.SendReceipt(context.Background(), sinks.Receipt{
		To:            "jane@example.com",
		Name:          "Jane",
		InvoiceTitle:  "Jane - Rewards - November 2024",
		InvoiceNumber: "DR-DENT-1",
		RecordID:      "page-1",
	})

	require.NoError(t, err)
	email.AssertExpectations(t)
}

func TestSendReceipt_DisabledOrNoAddress(t *testing.T) {
	assert.NoError(t, NewWithClients(nil, "", nil, "", nil).SendReceipt(context.Background(), sinks.Receipt{To: "a@b.c"}))

	email := new(mockEmail)
	n := NewWithClients(email, "from@x", nil, "", nil)
	assert.NoError(t, n.SendReceipt(context.Background(), sinks.Receipt{}))
	email.AssertNotCalled(t, "SendPlainText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendReceipt_Failure(t *testing.T) {
	email := new(mockEmail)
	email.On("SendPlainText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", stderrors.New("throttled"))

	err := NewWithClients(email, "from@x", nil, "", nil).SendReceipt(context.Background(), sinks.Receipt{To: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, errors.CodeOf(err))
}

func TestSendAlert_ListsOrphanedFiles(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishToTopic", mock.Anything, "arn:aws:sns:eu-west-2:1:ops", "Invoice submission failed",
		mock.MatchedBy(func(msg string) bool {
			return assert.Contains(t, msg, "Jane") && assert.Contains(t, msg, "https://files/a.png")
		})).Return("id-1", nil)

	n := NewWithClients(nil, "", pub, "arn:aws:sns:eu-west-2:1:ops", logger.NewTestLogger(t))
	err := n.SendAlert(context.Background(), sinks.Alert{
		Submitter: "Jane",
		Title:     "Jane - Rewards - November 2024",
		Reason:    "notion unavailable",
		Orphaned:  []string{"https://files/a.png"},
	})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestSendAlert_Disabled(t *testing.T) {
	assert.NoError(t, NewWithClients(nil, "", nil, "", nil).SendAlert(context.Background(), sinks.Alert{}))
}
