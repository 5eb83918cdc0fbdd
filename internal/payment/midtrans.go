package payment

import (
	"context"
	"errors"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// ゲートウェイ設定。グローバル変数への代入はせず、必ずこのstructから組み立てる。
type MidtransConfig struct {
	ServerKey  string
	ClientKey  string
	Production bool
}

type MidtransGateway struct {
	serverKey string
	snap      snap.Client
	core      coreapi.Client
}

func NewMidtransGateway(cfg MidtransConfig) *MidtransGateway {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}

	g := &MidtransGateway{serverKey: cfg.ServerKey}
	g.snap.New(cfg.ServerKey, env)
	g.core.New(cfg.ServerKey, env)
	return g
}

func (g *MidtransGateway) CreateSnapToken(ctx context.Context, orderCode string, grossAmount int64, customer Customer, items []ItemDetail) (string, error) {
	details := make([]midtrans.ItemDetails, 0, len(items))
	for _, it := range items {
		details = append(details, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  it.Name,
			Price: it.Price,
			Qty:   it.Qty,
		})
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderCode,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		},
		Items: &details,
	}

	resp, mErr := g.snap.CreateTransaction(req)
	if mErr != nil {
		return "", mErr
	}
	if resp == nil || resp.Token == "" {
		return "", errors.New("empty snap token")
	}
	return resp.Token, nil
}

func (g *MidtransGateway) CheckTransaction(ctx context.Context, orderCode string) (TransactionStatus, error) {
	resp, mErr := g.core.CheckTransaction(orderCode)
	if mErr != nil {
		return TransactionStatus{}, mErr
	}
	if resp == nil {
		return TransactionStatus{}, errors.New("empty transaction status")
	}

	return TransactionStatus{
		OrderCode:         resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		PaymentType:       resp.PaymentType,
		TransactionID:     resp.TransactionID,
	}, nil
}
