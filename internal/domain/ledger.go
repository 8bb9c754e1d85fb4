package domain

import "fmt"

// BalanceType names one of the three balances held by a wallet.
type BalanceType string

const (
	BalanceMain     BalanceType = "main"
	BalanceCashback BalanceType = "cashback"
	BalancePenalty  BalanceType = "penalty"
)

// BalanceTypes lists every balance in a stable order.
var BalanceTypes = []BalanceType{BalanceMain, BalanceCashback, BalancePenalty}

func (b BalanceType) Valid() bool {
	switch b {
	case BalanceMain, BalanceCashback, BalancePenalty:
		return true
	}
	return false
}

// Column returns the wallets column backing the balance.
func (b BalanceType) Column() (string, error) {
	switch b {
	case BalanceMain:
		return "main_balance", nil
	case BalanceCashback:
		return "cashback_balance", nil
	case BalancePenalty:
		return "penalty_balance", nil
	}
	return "", fmt.Errorf("unknown balance type %q", string(b))
}

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxCredit   TransactionType = "credit"
	TxDebit    TransactionType = "debit"
	TxCashback TransactionType = "cashback"
	TxPenalty  TransactionType = "penalty"
	TxRefund   TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxCredit, TxDebit, TxCashback, TxPenalty, TxRefund:
		return true
	}
	return false
}

// ReferenceType tags the business event a ledger entry points at.
type ReferenceType string

const (
	RefOrder    ReferenceType = "order"
	RefTopup    ReferenceType = "topup"
	RefRefund   ReferenceType = "refund"
	RefCashback ReferenceType = "cashback"
	RefPenalty  ReferenceType = "penalty"
)

func (r ReferenceType) Valid() bool {
	switch r {
	case "", RefOrder, RefTopup, RefRefund, RefCashback, RefPenalty:
		return true
	}
	return false
}

// Manual reports whether an operator may attach r to a hand-posted entry.
// Order and cashback entries are written only by checkout.
func (r ReferenceType) Manual() bool {
	switch r {
	case "", RefTopup, RefRefund, RefPenalty:
		return true
	}
	return false
}
