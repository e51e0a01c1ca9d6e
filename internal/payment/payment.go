// Package payment 定义结算核心与支付网关之间的标准数据结构
package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPaymentNotFound 网关不存在该支付
var ErrPaymentNotFound = errors.New("payment not found")

// Status 网关支付的标准化记录，Webhook 与轮询最终都归一到该结构
type Status struct {
	ID                string          // 网关支付 ID
	Status            string          // approved / pending / in_process / rejected / cancelled / refunded / unknown
	StatusDetail      string          // 网关原始状态说明
	ExternalReference string          // 创建时写入的内部引用（order:<id> / coupon:<id>）
	Amount            decimal.Decimal // 支付金额
	ApprovedAt        *time.Time      // 确认时间
}

// Payer 付款人信息
type Payer struct {
	Email     string
	FirstName string
	CPF       string // 11 位纯数字
}

// ChargeInput 直接扣款（PIX/信用卡）请求
type ChargeInput struct {
	Amount            decimal.Decimal
	Description       string
	Method            string // pix / card
	CardToken         string
	CardMethodID      string // 例如 visa / master
	Installments      int
	Payer             Payer
	ExternalReference string
	IdempotencyKey    string
}

// ChargeResult 扣款结果与付款指引
type ChargeResult struct {
	ID           string
	Status       string
	StatusDetail string
	QRCode       string // PIX copia e cola
	QRCodeBase64 string // PIX 二维码图片
	TicketURL    string // 网关托管的付款页
}

// PreferenceItem 结账偏好中的商品行
type PreferenceItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// BackURLs 结账完成后的回跳地址
type BackURLs struct {
	Success string
	Failure string
	Pending string
}

// PreferenceInput 创建托管结账偏好请求
type PreferenceInput struct {
	Items             []PreferenceItem
	BackURLs          BackURLs
	ExternalReference string
	PayerEmail        string
}

// PreferenceResult 托管结账偏好
type PreferenceResult struct {
	ID        string
	InitPoint string
}
