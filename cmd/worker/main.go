package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habitroom/internal/attendance"
	"habitroom/internal/config"
	"habitroom/internal/proofstore"
	"habitroom/internal/queue"
	"habitroom/internal/room"
	"habitroom/internal/store"
)

// Worker deletes proof artifacts for removed rooms and periodically sweeps
// every room for missed days, so analytics stay correct for rooms nobody
// has opened in a while.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "habitroom:cleanup")
	}

	roomRepo := room.NewRepository(db.Client)
	att := attendance.NewService(attendance.NewRepository(db.Client), cfg.ReconcileLookback)

	var proofs *proofstore.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		proofs = proofstore.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	} else {
		log.Println("proof storage not configured; cleanup messages will be logged only")
	}

	go runSweep(ctx, roomRepo, att, cfg.SweepInterval)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeProofCleanup {
			continue
		}
		log.Printf("cleaning up %d proofs for room %s", len(msg.ProofRefs), msg.RoomID)
		for _, ref := range msg.ProofRefs {
			if proofs == nil {
				log.Printf("skip proof %s (storage not configured)", ref)
				continue
			}
			if err := proofs.Destroy(ref); err != nil {
				// best effort: the room is already gone, an orphaned
				// artifact is not worth failing the batch
				log.Printf("destroy proof %s failed: %v", ref, err)
			}
		}
	}

	log.Println("worker stopped")
}

// runSweep reconciles missed days for every room on a fixed cadence.
func runSweep(ctx context.Context, rooms *room.Repository, att *attendance.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		all, err := rooms.ListAll(ctx)
		if err != nil {
			log.Printf("sweep: list rooms failed: %v", err)
			return
		}
		now := time.Now().UTC()
		reconciled := 0
		for _, rm := range all {
			if err := att.Reconcile(ctx, rm, now); err != nil {
				log.Printf("sweep: reconcile room %s failed: %v", rm.ID, err)
				continue
			}
			reconciled++
		}
		log.Printf("sweep: reconciled %d/%d rooms", reconciled, len(all))
	}

	sweep()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-ctx.Done():
			return
		}
	}
}
