package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 任意键值 JSON 类型，用于设置值与事件元数据
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	return scanJSON(value, j)
}

// Address 结构化地址，以 JSON 存储
type Address struct {
	Name       string `json:"name" validate:"required,max=100"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// Value 实现 driver.Valuer 接口
func (a *Address) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan 实现 sql.Scanner 接口
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, a)
}

// ProductSnapshot 下单时的商品快照，后续商品修改不影响历史订单
type ProductSnapshot struct {
	ProductID uint   `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Image     string `json:"image,omitempty"`
}

// Value 实现 driver.Valuer 接口
func (s ProductSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *ProductSnapshot) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, s)
}

func scanJSON(value interface{}, target interface{}) error {
	switch typed := value.(type) {
	case []byte:
		if len(typed) == 0 {
			return nil
		}
		return json.Unmarshal(typed, target)
	case string:
		if typed == "" {
			return nil
		}
		return json.Unmarshal([]byte(typed), target)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}
