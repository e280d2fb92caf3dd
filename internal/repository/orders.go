package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/models"
)

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return wrap("create order", s.conn(ctx).Create(order).Error)
}

func (s *GormStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.conn(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, wrap("get order", err)
	}
	return &order, nil
}

func (s *GormStore) ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	query := s.conn(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(address) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count orders", err)
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, wrap("list orders", err)
	}
	return orders, total, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	res := s.conn(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return wrap("update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *GormStore) SetOrderTransactionID(ctx context.Context, id uuid.UUID, transactionID string) error {
	res := s.conn(ctx).Model(&models.Order{}).Where("id = ?", id).Update("transaction_id", transactionID)
	if res.Error != nil {
		return wrap("set order transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UserOrderStats(ctx context.Context, userID uuid.UUID) (OrderStats, error) {
	var stats OrderStats
	err := s.conn(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS spent, COALESCE(MAX(total), 0) AS max_order, COALESCE(SUM(bonus_used), 0) AS bonus_used").
		Where("user_id = ? AND status IN ?", userID, countedStatuses()).
		Scan(&stats).Error
	return stats, wrap("user order stats", err)
}

func (s *GormStore) OrderStatusCounts(ctx context.Context) (map[models.OrderStatus]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := s.conn(ctx).Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, wrap("order status counts", err)
	}

	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, r := range rows {
		counts[models.OrderStatus(r.Status)] = r.Count
	}
	return counts, nil
}

func (s *GormStore) CountedRevenue(ctx context.Context) (int64, error) {
	var revenue int64
	err := s.conn(ctx).Model(&models.Order{}).
		Where("status IN ?", countedStatuses()).
		Select("COALESCE(SUM(total), 0)").
		Scan(&revenue).Error
	return revenue, wrap("counted revenue", err)
}

func countedStatuses() []string {
	out := make([]string, 0, len(models.CountedStatuses))
	for _, s := range models.CountedStatuses {
		out = append(out, string(s))
	}
	return out
}
