package cron

import (
	"context"
	"log"
	"time"

	"tahanan/config"
	"tahanan/services/booking"
	"tahanan/services/subscription"

	"github.com/hibiken/asynq"
)

const (
	TypeReservationComplete = "reservation:complete"
	TypeSubscriptionExpire  = "subscription:expire"
)

// InitSweepWorker runs the periodic sweeps in background: completing
// confirmed reservations whose check-out has elapsed and expiring
// subscriptions past their period bound.
func InitSweepWorker(bookingSvc booking.Service, subSvc subscription.Service) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReservationComplete, handleReservationComplete(bookingSvc))
	mux.HandleFunc(TypeSubscriptionExpire, handleSubscriptionExpire(subSvc))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeReservationComplete, nil)); err != nil {
		log.Fatalf("[SweepWorker] failed to register completion sweep: %v", err)
	}
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeSubscriptionExpire, nil)); err != nil {
		log.Fatalf("[SweepWorker] failed to register expiry sweep: %v", err)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[SweepWorker] scheduler stopped: %v", err)
		}
	}()

	// Start async worker with retry logic
	go func() {
		log.Println("[SweepWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SweepWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SweepWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleReservationComplete(bookingSvc booking.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		completed, err := bookingSvc.CompleteDue(ctx, time.Now())
		if err != nil {
			log.Printf("[SweepWorker] completion sweep failed: %v", err)
			return err
		}
		if len(completed) > 0 {
			log.Printf("[SweepWorker] completed %d reservations", len(completed))
		}
		return nil
	}
}

func handleSubscriptionExpire(subSvc subscription.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		expired, err := subSvc.ExpireDue(ctx, time.Now())
		if err != nil {
			log.Printf("[SweepWorker] expiry sweep failed: %v", err)
			return err
		}
		if len(expired) > 0 {
			log.Printf("[SweepWorker] expired subscriptions for %d hosts", len(expired))
		}
		return nil
	}
}
