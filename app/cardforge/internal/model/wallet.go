package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrInsufficientFunds 余额不足
var ErrInsufficientFunds = errors.New("insufficient funds")

// InsufficientFundsError 余额不足的明细
type InsufficientFundsError struct {
	Currency string
	Have     int64
	Need     int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Insufficient %s: have %d, need %d", e.Currency, e.Have, e.Need)
}

// Is 使 errors.Is(err, ErrInsufficientFunds) 成立
func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// Wallet 货币余额，余额永不为负
type Wallet map[string]int64

// Credit 增加余额
func (w Wallet) Credit(currency string, amount int64) error {
	if amount < 0 {
		return errors.New("Cannot credit negative amount")
	}
	w[currency] += amount
	return nil
}

// Debit 扣减余额
func (w Wallet) Debit(currency string, amount int64) error {
	if amount < 0 {
		return errors.New("Cannot debit negative amount")
	}
	current := w[currency]
	if current < amount {
		return &InsufficientFundsError{Currency: currency, Have: current, Need: amount}
	}
	w[currency] = current - amount
	return nil
}

// Merge 按正负号逐项入账或扣款，遇到错误立即返回
func (w Wallet) Merge(deltas map[string]int64) error {
	for _, code := range sortedKeys(deltas) {
		amount := deltas[code]
		var err error
		if amount >= 0 {
			err = w.Credit(code, amount)
		} else {
			err = w.Debit(code, -amount)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
