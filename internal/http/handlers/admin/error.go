package admin

import (
	"github.com/shopcore-next/internal/authz"
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mappedHandlerError = handlershared.MappedError

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}

var adminAuthErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.invalid_credentials"},
	{Target: service.ErrInvalidOldPassword, Code: response.CodeBadRequest, Key: "error.old_password_invalid"},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Key: "error.password_weak"},
	{Target: service.ErrAdminNotFound, Code: response.CodeNotFound, Key: "error.admin_not_found"},
	{Target: service.ErrAdminExists, Code: response.CodeConflict, Key: "error.admin_exists"},
	{Target: service.ErrAdminUsernameInvalid, Code: response.CodeBadRequest, Key: "error.admin_username_invalid"},
}

var captchaErrorRules = []mappedHandlerError{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
	{Target: service.ErrCaptchaConfig, Code: response.CodeBadRequest, Key: "error.captcha_unavailable"},
}

var orderTransitionErrorRules = []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderRefInvalid, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrInvalidTransition, Code: response.CodeBadRequest, Key: "error.order_transition_invalid"},
	{Target: service.ErrOrderStatusTerminal, Code: response.CodeBadRequest, Key: "error.order_status_terminal"},
	{Target: service.ErrOrderStatusConflict, Code: response.CodeConflict, Key: "error.order_status_conflict"},
	{Target: service.ErrUnknownStatus, Code: response.CodeBadRequest, Key: "error.order_status_unknown"},
	{Target: service.ErrUnknownAxis, Code: response.CodeBadRequest, Key: "error.order_status_unknown"},
}

var orderPatchErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrImmutableField, Code: response.CodeBadRequest, Key: "error.order_field_immutable"},
	{Target: service.ErrOrderPatchEmpty, Code: response.CodeBadRequest, Key: "error.order_patch_empty"},
	{Target: service.ErrAddressInvalid, Code: response.CodeBadRequest, Key: "error.address_invalid"},
	{Target: service.ErrPaymentMethodInvalid, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
}, orderTransitionErrorRules)

var paymentConfirmErrorRules = handlershared.ConcatMappedErrors([]mappedHandlerError{
	{Target: service.ErrPaymentInvalid, Code: response.CodeBadRequest, Key: "error.payment_invalid"},
	{Target: service.ErrPaymentAmountMismatch, Code: response.CodeBadRequest, Key: "error.payment_amount_mismatch"},
}, orderTransitionErrorRules)

var userAdminErrorRules = []mappedHandlerError{
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
	{Target: service.ErrUserStatusInvalid, Code: response.CodeBadRequest, Key: "error.user_status_invalid"},
}

var productAdminErrorRules = []mappedHandlerError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductInvalid, Code: response.CodeBadRequest, Key: "error.product_invalid"},
	{Target: service.ErrProductPriceInvalid, Code: response.CodeBadRequest, Key: "error.product_price_invalid"},
	{Target: service.ErrProductSKUExists, Code: response.CodeConflict, Key: "error.product_sku_exists"},
}

var settingErrorRules = []mappedHandlerError{
	{Target: service.ErrSettingNotFound, Code: response.CodeNotFound, Key: "error.setting_not_found"},
	{Target: service.ErrSettingKeyEmpty, Code: response.CodeBadRequest, Key: "error.setting_key_empty"},
}

var authzErrorRules = []mappedHandlerError{
	{Target: authz.ErrReservedRole, Code: response.CodeBadRequest, Key: "error.role_reserved"},
	{Target: authz.ErrRoleRequired, Code: response.CodeBadRequest, Key: "error.role_invalid"},
	{Target: authz.ErrActionRequired, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: authz.ErrObjectInvalid, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: authz.ErrAdminRequired, Code: response.CodeBadRequest, Key: "error.admin_id_invalid"},
	{Target: authz.ErrUnavailable, Code: response.CodeInternal, Key: "error.authz_unavailable"},
}
