package chat

import (
	"errors"
	"fmt"
	"os"
	"time"

	gymdb "github.com/zulandar/gymyard/internal/db"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// DefaultLeaseTimeout is how long a lease survives without a heartbeat
// before another process may take it over.
const DefaultLeaseTimeout = 90 * time.Second

var (
	// ErrLeaseHeld means another live process is running the bot.
	ErrLeaseHeld = errors.New("bot lease held by another process")
	// ErrLeaseLost means this process no longer holds its lease.
	ErrLeaseLost = errors.New("bot lease lost")
)

// AcquireLease claims the bot lease for platform on behalf of holder.
// A lease whose heartbeat is older than timeout is taken over; a holder
// may re-acquire its own lease.
func AcquireLease(db *gorm.DB, platform, holder string, timeout time.Duration) (*models.BotLease, error) {
	if timeout <= 0 {
		timeout = DefaultLeaseTimeout
	}

	var lease models.BotLease
	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Where("platform = ?", platform).First(&lease)
		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			lease = models.BotLease{Platform: platform, Holder: holder, AcquiredAt: now, LastHeartbeat: now}
			return tx.Create(&lease).Error
		case result.Error != nil:
			return fmt.Errorf("check existing lease: %w", result.Error)
		}

		if lease.Holder != holder && now.Sub(lease.LastHeartbeat) < timeout {
			return fmt.Errorf("%w: %s since %s", ErrLeaseHeld, lease.Holder, lease.AcquiredAt.Format(time.RFC3339))
		}
		lease.Holder = holder
		lease.AcquiredAt = now
		lease.LastHeartbeat = now
		return tx.Save(&lease).Error
	})
	if gymdb.IsDuplicateKey(err) {
		err = fmt.Errorf("%w: concurrent start", ErrLeaseHeld)
	}
	if err != nil {
		return nil, fmt.Errorf("chat: acquire lease %s: %w", platform, err)
	}
	return &lease, nil
}

// HeartbeatLease refreshes the lease. It returns ErrLeaseLost if another
// process has taken the lease over.
func HeartbeatLease(db *gorm.DB, platform, holder string) error {
	result := db.Model(&models.BotLease{}).
		Where("platform = ? AND holder = ?", platform, holder).
		Update("last_heartbeat", time.Now())
	if result.Error != nil {
		return fmt.Errorf("chat: heartbeat lease %s: %w", platform, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("chat: heartbeat lease %s: %w", platform, ErrLeaseLost)
	}
	return nil
}

// ReleaseLease gives the lease up. Releasing a lease held by someone else
// is a no-op.
func ReleaseLease(db *gorm.DB, platform, holder string) error {
	if err := db.Where("platform = ? AND holder = ?", platform, holder).
		Delete(&models.BotLease{}).Error; err != nil {
		return fmt.Errorf("chat: release lease %s: %w", platform, err)
	}
	return nil
}

// defaultHolder identifies this process as host:pid.
func defaultHolder() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}
