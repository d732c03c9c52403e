package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"calmateAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher drains queued notifications through a small worker
// pool and runs the hourly streak-reminder sweep. Push delivery is best
// effort; the notification row is authoritative either way.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *dispatchJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

type dispatchJob struct {
	notification *notification.Notification
	preferences  *notification.Preferences
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	d := &NotificationDispatcher{
		service:  service,
		workers:  5,
		jobQueue: make(chan *dispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	go d.streakReminderLoop()

	return d
}

func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

func (d *NotificationDispatcher) Dispatch(notif *notification.Notification, prefs *notification.Preferences) {
	job := &dispatchJob{notification: notif, preferences: prefs}

	select {
	case d.jobQueue <- job:
	case <-time.After(5 * time.Second):
		log.Printf("Dispatcher: queue full, dropping notification %s", notif.ID)
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *dispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.notification
	prefs := job.preferences

	if prefs.PushEnabled && len(prefs.DeviceTokens) > 0 && d.pushProvider != nil {
		err := d.pushProvider.SendPush(ctx, prefs.DeviceTokens, notif.Title, notif.Body, notif.Data)
		if err != nil {
			log.Printf("Dispatcher: push failed for user %s: %v", notif.UserID, err)
			d.markStatus(ctx, notif, notification.StatusFailed)
			return
		}
	}

	d.markStatus(ctx, notif, notification.StatusSent)
}

func (d *NotificationDispatcher) markStatus(ctx context.Context, notif *notification.Notification, status notification.NotificationStatus) {
	_, err := d.service.db.Exec(ctx, `UPDATE notifications SET status = $2 WHERE id = $1`, notif.ID, status)
	if err != nil {
		log.Printf("Dispatcher: failed to mark notification %s as %s: %v", notif.ID, status, err)
	}
}

// streakReminderLoop nudges users who haven't logged in 20+ hours but whose
// streak is still salvageable inside the grace window. At most one reminder
// per user per UTC day.
func (d *NotificationDispatcher) streakReminderLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.sendStreakReminders()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) sendStreakReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rows, err := d.service.db.Query(ctx, `
		SELECT id, current_streak
		FROM users u
		WHERE last_log_date IS NOT NULL
			AND last_log_date <= NOW() - INTERVAL '20 hours'
			AND last_log_date > NOW() - INTERVAL '48 hours'
			AND current_streak > 0
			AND NOT EXISTS (
				SELECT 1 FROM notifications n
				WHERE n.user_id = u.id
					AND n.type = 'streak_reminder'
					AND n.created_at >= date_trunc('day', NOW())
			)
	`)
	if err != nil {
		log.Printf("Dispatcher: streak reminder query failed: %v", err)
		return
	}
	defer rows.Close()

	type reminder struct {
		userID  uuid.UUID
		current int
	}
	var due []reminder
	for rows.Next() {
		var r reminder
		if err := rows.Scan(&r.userID, &r.current); err != nil {
			log.Printf("Dispatcher: failed to scan reminder row: %v", err)
			continue
		}
		due = append(due, r)
	}
	rows.Close()

	for _, r := range due {
		d.service.notifyStreakReminder(ctx, r.userID, r.current)
	}
	if len(due) > 0 {
		log.Printf("Dispatcher: queued %d streak reminders", len(due))
	}
}
