package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/config"
	"github.com/eventmart/commerce-backend/internal/database"
)

// ReconciliationService expires pending transactions whose payment
// never verified. Expired rows keep their snapshots; no inventory is
// touched because none was taken at creation.
type ReconciliationService struct {
	bookings  *database.BookingRepository
	orders    *database.OrderRepository
	logger    *logrus.Logger
	stopCh    chan struct{}
	interval  time.Duration
	expireAge time.Duration
}

// NewReconciliationService creates a new reconciliation sweeper
func NewReconciliationService(
	bookings *database.BookingRepository,
	orders *database.OrderRepository,
	cfg config.ReconciliationConfig,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		bookings:  bookings,
		orders:    orders,
		logger:    logger,
		stopCh:    make(chan struct{}),
		interval:  cfg.Interval,
		expireAge: cfg.ExpireAge,
	}
}

// Start begins the background sweep
func (s *ReconciliationService) Start() {
	s.logger.WithFields(logrus.Fields{
		"interval":   s.interval,
		"expire_age": s.expireAge,
	}).Info("Starting reconciliation service")
	go s.run()
}

// Stop stops the background sweep
func (s *ReconciliationService) Stop() {
	s.logger.Info("Stopping reconciliation service")
	close(s.stopCh)
}

func (s *ReconciliationService) run() {
	// Run immediately on start
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			s.logger.Info("Reconciliation service stopped")
			return
		}
	}
}

// sweep expires stale pending bookings and orders
func (s *ReconciliationService) sweep() {
	cutoff := time.Now().Add(-s.expireAge)

	expiredBookings, err := s.bookings.MarkExpiredOlderThan(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to expire stale bookings")
	}

	expiredOrders, err := s.orders.MarkExpiredOlderThan(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to expire stale orders")
	}

	if expiredBookings > 0 || expiredOrders > 0 {
		s.logger.WithFields(logrus.Fields{
			"bookings": expiredBookings,
			"orders":   expiredOrders,
		}).Info("Expired stale pending transactions")
	}
}
