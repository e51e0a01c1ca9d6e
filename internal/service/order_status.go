package service

import (
	"strings"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"

	"gorm.io/gorm"
)

// allowedTransitions 管理端可执行的状态流转；pendente -> confirmado 只能由支付确认触发
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusPreparing: true,
		constants.OrderStatusCanceled:  true,
	},
	constants.OrderStatusPreparing: {
		constants.OrderStatusShipped:  true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
}

func isOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusPreparing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCanceled:
		return true
	}
	return false
}

// UpdateOrderStatus 管理端推进订单状态，取消时回补库存
func (s *OrderService) UpdateOrderStatus(orderID uint, target string, adminID uint) (*models.Order, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if !isOrderStatus(target) {
		return nil, ErrInvalidOrderStatus
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !allowedTransitions[order.Status][target] {
			return ErrOrderStatusInvalid
		}
		updates := map[string]interface{}{}
		if target == constants.OrderStatusCanceled {
			updates["canceled_at"] = utcNow()
		}
		affected, err := orderRepo.TransitionStatus(order.ID, []string{order.Status}, target, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return conflict(ErrOrderStatusInvalid)
		}
		if target == constants.OrderStatusCanceled {
			return restoreOrderStock(orderRepo, s.productRepo.WithTx(tx), order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("order_status_updated", "order_id", orderID, "status", target, "admin_id", adminID)
	return s.orderRepo.GetByID(orderID)
}

// restoreOrderStock 取消订单时按订单项回补库存，须在取消状态写入的同一事务内调用
func restoreOrderStock(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, orderID uint) error {
	order, err := orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	for _, item := range order.Items {
		if err := productRepo.RestoreStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
