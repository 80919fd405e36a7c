package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

type StatsService struct {
	users  repository.UserRepository
	orders repository.OrderRepository
}

func NewStatsService(users repository.UserRepository, orders repository.OrderRepository) *StatsService {
	return &StatsService{users: users, orders: orders}
}

// Dashboard runs the four admin counters concurrently. Pending means neither
// delivered nor cancelled; revenue only counts delivered orders.
func (s *StatsService) Dashboard(ctx context.Context, caller *model.User) (*model.AdminStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	var stats model.AdminStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Users, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Orders, err = s.orders.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingOrders, err = s.orders.CountPending(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Revenue, err = s.orders.DeliveredRevenue(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &stats, nil
}
