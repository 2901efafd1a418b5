package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	ev := FinalizeEvent{RollID: 7, BarCode: "B-0001", Outcome: "completed"}
	wp.Dispatch(ev)

	select {
	case job := <-wp.jobs:
		assert.Equal(t, ev, job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event to be dispatched")
	}
}

func TestWorkerPool_DispatchNeverBlocks(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// No worker is running: the buffer holds one event, the second is dropped.
	wp.Dispatch(FinalizeEvent{RollID: 1})

	done := make(chan struct{})
	go func() {
		wp.Dispatch(FinalizeEvent{RollID: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	job := <-wp.jobs
	assert.Equal(t, int64(1), job.RollID)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	// --- Test Case: One subscription found, notification sent ---
	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.JSONEq(t, `{"rollId":7,"barCode":"B-0001","outcome":"completed"}`, string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		})

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", time.Now()))

		wp.Dispatch(FinalizeEvent{RollID: 7, BarCode: "B-0001", Outcome: "completed"})
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// --- Test Case: Subscription expired, should be deleted ---
	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		})

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "test_p256dh_expired", "test_auth_expired", time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch(FinalizeEvent{RollID: 8, BarCode: "B-0002", Outcome: "rejected"})

		// Poll until the delete has been observed by sqlmock.
		require.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, 2*time.Second, 10*time.Millisecond)
	})

	// --- Test Case: No subscriptions, nothing is sent ---
	t.Run("skips delivery with no subscribers", func(t *testing.T) {
		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("no notification should be sent without subscribers")
				return nil, nil
			},
		})

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

		wp.Dispatch(FinalizeEvent{RollID: 9})
		require.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, 2*time.Second, 10*time.Millisecond)
	})
}
