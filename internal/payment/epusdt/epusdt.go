package epusdt

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopcore-next/internal/constants"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("epusdt config invalid")
	ErrPayloadInvalid   = errors.New("epusdt payload invalid")
	ErrSignatureInvalid = errors.New("epusdt signature invalid")
)

// 网关订单状态
const (
	StatusWaiting = 1
	StatusSuccess = 2
	StatusExpired = 3
)

// CallbackData 网关异步回调数据
type CallbackData struct {
	TradeID            string      `json:"trade_id"`
	OrderID            string      `json:"order_id"`
	Amount             json.Number `json:"amount"`
	ActualAmount       json.Number `json:"actual_amount"`
	Token              string      `json:"token"`
	BlockTransactionID string      `json:"block_transaction_id"`
	Signature          string      `json:"signature"`
	Status             int         `json:"status"`
}

// CallbackResult 回调校验后的统一结果
type CallbackResult struct {
	OrderNo     string
	ProviderRef string
	Status      string
	Amount      *decimal.Decimal
}

// ParseCallback 解析回调报文
func ParseCallback(body []byte) (*CallbackData, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrPayloadInvalid)
	}
	var data CallbackData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}
	return &data, nil
}

// VerifyCallback 校验签名并转换为统一结果
func VerifyCallback(authToken string, data *CallbackData) (*CallbackResult, error) {
	if strings.TrimSpace(authToken) == "" {
		return nil, fmt.Errorf("%w: auth_token is required", ErrConfigInvalid)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: callback is nil", ErrPayloadInvalid)
	}
	expected := Sign(data.signParams(), authToken)
	if !strings.EqualFold(expected, strings.TrimSpace(data.Signature)) {
		return nil, ErrSignatureInvalid
	}

	result := &CallbackResult{
		OrderNo:     strings.TrimSpace(data.OrderID),
		ProviderRef: strings.TrimSpace(data.TradeID),
		Status:      ToProviderStatus(data.Status),
	}
	if result.ProviderRef == "" {
		return nil, fmt.Errorf("%w: trade_id is required", ErrPayloadInvalid)
	}
	if amount, err := decimal.NewFromString(data.Amount.String()); err == nil {
		result.Amount = &amount
	}
	return result, nil
}

// Sign 生成签名
// 非空参数按键名升序以 key=value 用 & 拼接，末尾直接追加 token，再取 MD5 小写
func Sign(params map[string]interface{}, authToken string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "signature" || isEmptyValue(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, params[k]))
	}
	sum := md5.Sum([]byte(strings.Join(pairs, "&") + authToken))
	return hex.EncodeToString(sum[:])
}

// ToProviderStatus 将网关状态转换为统一的渠道状态
func ToProviderStatus(status int) string {
	switch status {
	case StatusSuccess:
		return constants.ProviderStatusSuccess
	case StatusExpired:
		return constants.ProviderStatusExpired
	default:
		return constants.ProviderStatusPending
	}
}

func (c *CallbackData) signParams() map[string]interface{} {
	return map[string]interface{}{
		"trade_id":             c.TradeID,
		"order_id":             c.OrderID,
		"amount":               numberValue(c.Amount),
		"actual_amount":        numberValue(c.ActualAmount),
		"token":                c.Token,
		"block_transaction_id": c.BlockTransactionID,
		"status":               c.Status,
	}
}

// 网关按浮点数格式化金额参与签名
func numberValue(n json.Number) interface{} {
	raw := strings.TrimSpace(n.String())
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return f
}

func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}
