package service

import (
	"context"
	"strings"

	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
)

// GetOrder 按 ID 获取订单
func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNo 按订单号获取订单
func (s *OrderService) GetOrderByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetUserOrder 获取用户自己的订单，他人订单按不存在处理
func (s *OrderService) GetUserOrder(ctx context.Context, userID uint, orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if userID == 0 || orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNoAndUser(ctx, orderNo, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetGuestOrder 游客凭邮箱与订单号查询订单
func (s *OrderService) GetGuestOrder(ctx context.Context, email, orderNo string) (*models.Order, error) {
	normalized, err := normalizeGuestEmail(email)
	if err != nil {
		return nil, err
	}
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNoAndGuest(ctx, orderNo, normalized)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListUserOrders 用户订单列表
func (s *OrderService) ListUserOrders(ctx context.Context, userID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if userID == 0 {
		return []models.Order{}, 0, nil
	}
	filter.UserID = userID
	return s.orderRepo.ListByUser(ctx, filter)
}

// ListAdminOrders 管理端订单列表
func (s *OrderService) ListAdminOrders(ctx context.Context, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.OrderNo = strings.TrimSpace(filter.OrderNo)
	filter.GuestEmail = strings.ToLower(strings.TrimSpace(filter.GuestEmail))
	return s.orderRepo.ListAdmin(ctx, filter)
}

// GetOrderEvents 获取订单状态流转记录
func (s *OrderService) GetOrderEvents(ctx context.Context, orderID uint) ([]models.OrderEvent, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orderRepo.ListEvents(ctx, orderID)
}
