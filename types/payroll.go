package types

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleEmployee   Role = "EMPLOYEE"
	RoleSuperAdmin Role = "SUPER ADMIN"
)

// TreasuryWallet is an organisation's custodial wallet set spanning the treasury chains.
type TreasuryWallet struct {
	OrganisationID string            `json:"organisation_id" bson:"-" yaml:"-"`
	WalletSetID    string            `json:"wallet_set_id" bson:"walletSetId" yaml:"wallet-set-id"`
	Addresses      map[string]string `json:"addresses" bson:"addresses" yaml:"addresses"`
	WalletIDs      map[string]string `json:"wallet_ids" bson:"walletIds" yaml:"wallet-ids"`
	Balances       map[string]string `json:"balances" bson:"balances" yaml:"balances,omitempty"`
}

// Provisioned reports whether a wallet set already exists.
func (w *TreasuryWallet) Provisioned() bool {
	return w != nil && w.WalletSetID != ""
}

func (w *TreasuryWallet) Address(chain string) string {
	if w == nil {
		return ""
	}
	return w.Addresses[chain]
}

func (w *TreasuryWallet) WalletID(chain string) string {
	if w == nil {
		return ""
	}
	return w.WalletIDs[chain]
}

// EmployeeWallet is the optional payout destination of an employee.
type EmployeeWallet struct {
	EmployeeID       string `json:"employee_id" bson:"-"`
	Address          string `json:"address" bson:"walletAddress"`
	Chain            string `json:"chain" bson:"chain"`
	ProviderWalletID string `json:"provider_wallet_id" bson:"walletId"`
}

type Organisation struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PayDay     int             `json:"pay_day"`
	IsDeleted  bool            `json:"is_deleted"`
	IsApproved bool            `json:"is_approved"`
	Treasury   *TreasuryWallet `json:"treasury,omitempty"`
}

type Employee struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	FullName     string          `json:"fullname"`
	Roles        []Role          `json:"roles"`
	Salary       string          `json:"salary"`
	IsSuspended  bool            `json:"is_suspended"`
	WalletAmount string          `json:"wallet_amount"`
	Wallet       *EmployeeWallet `json:"wallet,omitempty"`
}

func (e *Employee) IsAdmin() bool {
	return slices.Contains(e.Roles, RoleAdmin)
}

// Disbursement is one allocated salary drawn from a single treasury chain.
type Disbursement struct {
	EmployeeID  string          `json:"employee_id"`
	Amount      decimal.Decimal `json:"amount"`
	SourceChain string          `json:"source_chain"`
}

// PayrollBatch is the transient record of one organisation's run.
type PayrollBatch struct {
	OrganisationID string          `json:"organisation_id"`
	RunTimestamp   time.Time       `json:"run_timestamp"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	Disbursements  []Disbursement  `json:"disbursements"`
}
