package service

import (
	"github.com/shopcore-next/internal/constants"
)

// fulfillmentTransitions 履约状态的正向流转
var fulfillmentTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed:  true,
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusShipped:    true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
}

// paymentTransitions 支付状态流转
var paymentTransitions = map[string]map[string]bool{
	constants.PaymentStatusPending: {
		constants.PaymentStatusProcessing: true,
		constants.PaymentStatusPaid:       true,
		constants.PaymentStatusFailed:     true,
	},
	constants.PaymentStatusProcessing: {
		constants.PaymentStatusPaid:   true,
		constants.PaymentStatusFailed: true,
	},
	constants.PaymentStatusFailed: {
		constants.PaymentStatusProcessing: true,
		constants.PaymentStatusPaid:       true,
	},
	constants.PaymentStatusPaid: {
		constants.PaymentStatusRefunded: true,
	},
}

// fulfillmentRank 履约状态先后顺序，用于判断回退
var fulfillmentRank = map[string]int{
	constants.OrderStatusPending:    0,
	constants.OrderStatusConfirmed:  1,
	constants.OrderStatusProcessing: 2,
	constants.OrderStatusShipped:    3,
	constants.OrderStatusDelivered:  4,
}

var paymentStatuses = map[string]bool{
	constants.PaymentStatusPending:    true,
	constants.PaymentStatusProcessing: true,
	constants.PaymentStatusPaid:       true,
	constants.PaymentStatusFailed:     true,
	constants.PaymentStatusRefunded:   true,
}

// IsKnownFulfillmentStatus 判断履约状态是否合法
func IsKnownFulfillmentStatus(status string) bool {
	if status == constants.OrderStatusCancelled {
		return true
	}
	_, ok := fulfillmentRank[status]
	return ok
}

// IsKnownPaymentStatus 判断支付状态是否合法
func IsKnownPaymentStatus(status string) bool {
	return paymentStatuses[status]
}

func isTerminalFulfillment(status string) bool {
	return status == constants.OrderStatusDelivered || status == constants.OrderStatusCancelled
}

func isTerminalPayment(status string) bool {
	return status == constants.PaymentStatusRefunded
}

// isFulfillmentRevert 管理员将非终态订单回退到更早的履约状态
func isFulfillmentRevert(current, target string) bool {
	currentRank, ok := fulfillmentRank[current]
	if !ok {
		return false
	}
	targetRank, ok := fulfillmentRank[target]
	if !ok {
		return false
	}
	return targetRank < currentRank
}

// checkTransition 校验状态流转是否允许，current 与 target 已确认不同
func checkTransition(axis, orderStatus, current, target, source string) error {
	switch axis {
	case constants.AxisFulfillment:
		if isTerminalFulfillment(current) {
			return ErrOrderStatusTerminal
		}
		if source != constants.TransitionSourceAdmin && target != constants.OrderStatusCancelled {
			return ErrInvalidTransition
		}
		if fulfillmentTransitions[current][target] {
			return nil
		}
		if source == constants.TransitionSourceAdmin && isFulfillmentRevert(current, target) {
			return nil
		}
		return ErrInvalidTransition
	case constants.AxisPayment:
		if isTerminalPayment(current) {
			return ErrOrderStatusTerminal
		}
		// 已取消订单仅允许退款
		if orderStatus == constants.OrderStatusCancelled &&
			!(current == constants.PaymentStatusPaid && target == constants.PaymentStatusRefunded) {
			return ErrOrderStatusTerminal
		}
		if source == constants.TransitionSourceCustomer && target != constants.PaymentStatusProcessing {
			return ErrInvalidTransition
		}
		if paymentTransitions[current][target] {
			return nil
		}
		return ErrInvalidTransition
	default:
		return ErrUnknownAxis
	}
}
