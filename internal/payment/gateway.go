package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
)

// 決済ゲートウェイとの境界。usecaseはこのinterfaceにだけ依存する。
type Gateway interface {
	// ホスト型決済UI用のセッショントークンを発行する
	CreateSnapToken(ctx context.Context, orderCode string, grossAmount int64, customer Customer, items []ItemDetail) (string, error)
	// ゲートウェイ側の取引状態を取得する（verify用ポーリング）
	CheckTransaction(ctx context.Context, orderCode string) (TransactionStatus, error)
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type ItemDetail struct {
	ID    string
	Name  string
	Price int64
	Qty   int32
}

// ゲートウェイが報告する取引状態（webhookとポーリングで共通）
type TransactionStatus struct {
	OrderCode         string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
	TransactionID     string
}

// 取引状態から注文側でどう扱うかを決める
type Outcome int

const (
	// まだ確定していない（pending / challengeなど）。何もしない。
	OutcomeNone Outcome = iota
	// 支払確定
	OutcomePaid
	// 失敗扱い（deny / cancel / expire）
	OutcomeFailed
)

// ゲートウェイの状態文字列を注文の遷移に写像する。
// settlementと「captureかつfraud accept」だけがpaid。
func (ts TransactionStatus) Outcome() Outcome {
	switch ts.TransactionStatus {
	case "settlement":
		return OutcomePaid
	case "capture":
		if ts.FraudStatus == "accept" || ts.FraudStatus == "" {
			return OutcomePaid
		}
		return OutcomeNone
	case "deny", "cancel", "expire":
		return OutcomeFailed
	default:
		// pendingや未知の状態は保留
		return OutcomeNone
	}
}

// webhook本文。ゲートウェイは順序・回数を保証しないので受信側は冪等であること。
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
}

func (n Notification) Status() TransactionStatus {
	return TransactionStatus{
		OrderCode:         n.OrderID,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		PaymentType:       n.PaymentType,
		TransactionID:     n.TransactionID,
	}
}

// signature_key = sha512(order_id + status_code + gross_amount + server_key)
func (n Notification) VerifySignature(serverKey string) bool {
	h := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	return hex.EncodeToString(h[:]) == n.SignatureKey
}
