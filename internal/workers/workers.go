package workers

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StartDailyCalorieReset zeroes every user's calories_consumed_today at
// midnight UTC. The daily total is a denormalized running counter, so the
// reset is a single bulk update rather than per-user work.
func StartDailyCalorieReset(db *pgxpool.Pool, stop <-chan struct{}) {
	go func() {
		for {
			timer := time.NewTimer(untilNextMidnightUTC(time.Now()))
			select {
			case <-timer.C:
				resetDailyCalories(db)
			case <-stop:
				timer.Stop()
				return
			}
		}
	}()
}

func untilNextMidnightUTC(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}

func resetDailyCalories(db *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tag, err := db.Exec(ctx, `UPDATE users SET calories_consumed_today = 0 WHERE calories_consumed_today <> 0`)
	if err != nil {
		log.Printf("Daily calorie reset failed: %v", err)
		return
	}
	log.Printf("Daily calorie reset: cleared %d users", tag.RowsAffected())
}
