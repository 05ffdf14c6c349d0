package public

import (
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}

var captchaErrorRules = []mappedHandlerError{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
	{Target: service.ErrCaptchaConfig, Code: response.CodeBadRequest, Key: "error.captcha_unavailable"},
}

var userAuthErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists"},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Key: "error.password_weak"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.invalid_credentials"},
	{Target: service.ErrInvalidOldPassword, Code: response.CodeBadRequest, Key: "error.old_password_invalid"},
	{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized, Key: "error.user_disabled"},
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
}

var cartErrorRules = []mappedHandlerError{
	{Target: service.ErrProductNotAvailable, Code: response.CodeBadRequest, Key: "error.product_not_available"},
	{Target: service.ErrProductNotFound, Code: response.CodeBadRequest, Key: "error.product_not_available"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrCartItemNotFound, Code: response.CodeNotFound, Key: "error.cart_item_not_found"},
	{Target: service.ErrInvalidOrderItem, Code: response.CodeBadRequest, Key: "error.order_item_invalid"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidOrderItem, Code: response.CodeBadRequest, Key: "error.order_item_invalid"},
	{Target: service.ErrTooManyOrderItems, Code: response.CodeBadRequest, Key: "error.order_too_many_items"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrGuestEmailRequired, Code: response.CodeBadRequest, Key: "error.guest_email_required"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrAddressInvalid, Code: response.CodeBadRequest, Key: "error.address_invalid"},
	{Target: service.ErrPaymentMethodInvalid, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
	{Target: service.ErrProductNotAvailable, Code: response.CodeBadRequest, Key: "error.product_not_available"},
	{Target: service.ErrOrderTotalMismatch, Code: response.CodeConflict, Key: "error.order_total_mismatch"},
	{Target: service.ErrOrderConflict, Code: response.CodeConflict, Key: "error.order_conflict"},
}

var orderReadErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderCancelNotAllowed, Code: response.CodeBadRequest, Key: "error.order_cancel_not_allowed"},
	{Target: service.ErrOrderStatusTerminal, Code: response.CodeBadRequest, Key: "error.order_cancel_not_allowed"},
	{Target: service.ErrOrderStatusConflict, Code: response.CodeConflict, Key: "error.order_status_conflict"},
}

var paymentAttachErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrPaymentMethodInvalid, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
	{Target: service.ErrPaymentAlreadyPaid, Code: response.CodeConflict, Key: "error.order_status_terminal"},
	{Target: service.ErrPaymentInvalid, Code: response.CodeBadRequest, Key: "error.payment_invalid"},
	{Target: service.ErrInvalidTransition, Code: response.CodeBadRequest, Key: "error.order_transition_invalid"},
	{Target: service.ErrOrderStatusTerminal, Code: response.CodeBadRequest, Key: "error.order_status_terminal"},
	{Target: service.ErrOrderStatusConflict, Code: response.CodeConflict, Key: "error.order_status_conflict"},
}
