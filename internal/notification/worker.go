package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"fabric-inspection-backend/internal/model"
)

// FinalizeEvent describes one roll reaching a terminal status. These are the
// jobs fed to the worker pool.
type FinalizeEvent struct {
	RollID  int64  `json:"rollId"`
	BarCode string `json:"barCode"`
	Outcome string `json:"outcome"`
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers pushing finalization notices to
// subscribed supervisors.
type WorkerPool struct {
	size    int
	jobs    chan FinalizeEvent
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan FinalizeEvent, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// SetSender swaps the sender implementation; used by tests.
func (wp *WorkerPool) SetSender(sender NotificationSender) {
	wp.sender = sender
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			log.Printf("Notification worker %d processing roll %d (%s)", id, ev.RollID, ev.Outcome)
			wp.sendForEvent(ctx, ev)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a finalization event for delivery. It never blocks the
// workflow: when the queue is full the event is dropped with a log line.
func (wp *WorkerPool) Dispatch(ev FinalizeEvent) {
	select {
	case wp.jobs <- ev:
	default:
		log.Printf("Notification queue full, dropping event for roll %d", ev.RollID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan FinalizeEvent {
	return wp.jobs
}

// sendForEvent fetches all supervisor subscriptions and delivers the notice.
func (wp *WorkerPool) sendForEvent(ctx context.Context, ev FinalizeEvent) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for roll %d: %v", ev.RollID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error encoding notification payload for roll %d: %v", ev.RollID, err)
		return
	}

	log.Printf("Sending %d notifications for roll %d", len(subscriptions), ev.RollID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
