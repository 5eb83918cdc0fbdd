package payment_test

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"app/internal/payment"

	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	cases := []struct {
		name   string
		status string
		fraud  string
		want   payment.Outcome
	}{
		{"settlement", "settlement", "", payment.OutcomePaid},
		{"capture accepted", "capture", "accept", payment.OutcomePaid},
		{"capture no fraud status", "capture", "", payment.OutcomePaid},
		{"capture challenged", "capture", "challenge", payment.OutcomeNone},
		{"deny", "deny", "", payment.OutcomeFailed},
		{"cancel", "cancel", "", payment.OutcomeFailed},
		{"expire", "expire", "", payment.OutcomeFailed},
		{"pending", "pending", "", payment.OutcomeNone},
		{"unknown", "refund", "", payment.OutcomeNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := payment.TransactionStatus{
				TransactionStatus: tc.status,
				FraudStatus:       tc.fraud,
			}
			assert.Equal(t, tc.want, ts.Outcome())
		})
	}
}

func TestVerifySignature(t *testing.T) {
	serverKey := "server-key"
	n := payment.Notification{
		OrderID:     "ORD-1",
		StatusCode:  "200",
		GrossAmount: "4600.00",
	}
	sig := sha512.Sum512([]byte("ORD-1" + "200" + "4600.00" + serverKey))
	n.SignatureKey = hex.EncodeToString(sig[:])

	assert.True(t, n.VerifySignature(serverKey))
	assert.False(t, n.VerifySignature("other-key"))

	//改ざんされた金額は弾く
	n.GrossAmount = "1.00"
	assert.False(t, n.VerifySignature(serverKey))
}

func TestNotificationStatus(t *testing.T) {
	n := payment.Notification{
		OrderID:           "ORD-1",
		TransactionStatus: "settlement",
		PaymentType:       "gopay",
		TransactionID:     "trx-1",
	}
	ts := n.Status()
	assert.Equal(t, "ORD-1", ts.OrderCode)
	assert.Equal(t, payment.OutcomePaid, ts.Outcome())
	assert.Equal(t, "gopay", ts.PaymentType)
}
