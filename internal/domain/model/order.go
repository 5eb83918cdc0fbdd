package model

import "time"

type OrderStatus string

const (
	OrderStatusPending             OrderStatus = "pending"
	OrderStatusWaitingConfirmation OrderStatus = "waiting_confirmation"
	OrderStatusPaid                OrderStatus = "paid"
	OrderStatusProcessing          OrderStatus = "processing"
	OrderStatusShipped             OrderStatus = "shipped"
	OrderStatusCompleted           OrderStatus = "completed"
	OrderStatusCancelled           OrderStatus = "cancelled"
	OrderStatusFailed              OrderStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodMidtrans     PaymentMethod = "midtrans"
)

// 注文の状態遷移表。ここに無い遷移は全部拒否。
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending: {
		OrderStatusWaitingConfirmation: true,
		OrderStatusPaid:                true,
		OrderStatusFailed:              true,
		OrderStatusCancelled:           true,
	},
	OrderStatusWaitingConfirmation: {
		OrderStatusPaid:      true,
		OrderStatusFailed:    true,
		OrderStatusCancelled: true,
	},
	OrderStatusPaid: {
		OrderStatusProcessing: true,
		OrderStatusCancelled:  true,
	},
	OrderStatusProcessing: {
		OrderStatusShipped:   true,
		OrderStatusCancelled: true,
	},
	OrderStatusShipped: {
		OrderStatusCompleted: true,
		OrderStatusCancelled: true,
	},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
	OrderStatusFailed:    {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// paidになった時点で在庫を引き落とした可能性があるステータス。
// ここからcancelledに落とすときは在庫を戻す。
func StockHeld(s OrderStatus) bool {
	switch s {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped:
		return true
	default:
		return false
	}
}

type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`
	//外部向けの注文コード（決済ゲートウェイのorder_idにも使う）
	OrderCode     string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_code"`
	Total         int64         `gorm:"not null" json:"total"`
	Status        OrderStatus   `gorm:"type:varchar(30);not null;index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(30);not null" json:"payment_method"`
	//ゲートウェイが通知してくる実際の支払手段（credit_card / gopayなど）
	PaymentType string `gorm:"type:varchar(50)" json:"payment_type"`
	//振込証憑の相対パス（銀行振込のみ）
	PaymentProof string     `gorm:"type:varchar(255)" json:"payment_proof"`
	PaymentDate  *time.Time `gorm:"index" json:"payment_date"`

	SnapToken             string `gorm:"type:varchar(255)" json:"snap_token,omitempty"`
	MidtransTransactionID string `gorm:"type:varchar(100)" json:"midtrans_transaction_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
