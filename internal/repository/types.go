package repository

import "time"

// ProductListFilter 商品列表过滤条件
type ProductListFilter struct {
	Page              int
	PageSize          int
	CategoryID        uint
	Search            string
	OnlyActive        bool
	ExcludeSpecialDay bool // 排除仅特殊日可售商品
}

// OrderListFilter 订单列表过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CouponListFilter 优惠券列表过滤条件
type CouponListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	PaymentStatus string
	OnlyUsable    bool
	UsableAt      time.Time // 可用判定时间，零值取当前 UTC 时间
}

// SpecialDayListFilter 特殊日列表过滤条件
type SpecialDayListFilter struct {
	Page     int
	PageSize int
	IsActive *bool
}
