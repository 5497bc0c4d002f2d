package store

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

type organisationDoc struct {
	ID         primitive.ObjectID    `bson:"_id,omitempty"`
	Name       string                `bson:"name"`
	PayDay     int                   `bson:"payDay"`
	IsDeleted  bool                  `bson:"isDeleted"`
	IsApproved bool                  `bson:"isApproved"`
	Wallet     *types.TreasuryWallet `bson:"wallet,omitempty"`
}

type userDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Org           primitive.ObjectID `bson:"org"`
	Username      string             `bson:"username"`
	FullName      string             `bson:"fullname"`
	Email         string             `bson:"email"`
	Role          []string           `bson:"role"`
	Salary        string             `bson:"salary"`
	IsSuspended   bool               `bson:"isSuspended"`
	IsDeleted     bool               `bson:"isDeleted"`
	WalletAmount  string             `bson:"walletAmount"`
	WalletAddress string             `bson:"walletAddress,omitempty"`
	Chain         string             `bson:"chain,omitempty"`
	WalletID      string             `bson:"walletId,omitempty"`
}

func (d organisationDoc) toOrganisation() types.Organisation {
	org := types.Organisation{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		PayDay:     d.PayDay,
		IsDeleted:  d.IsDeleted,
		IsApproved: d.IsApproved,
		Treasury:   d.Wallet,
	}
	if org.Treasury != nil {
		org.Treasury.OrganisationID = org.ID
	}
	return org
}

func (d userDoc) toEmployee() types.Employee {
	e := types.Employee{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		FullName:     d.FullName,
		Salary:       d.Salary,
		IsSuspended:  d.IsSuspended,
		WalletAmount: d.WalletAmount,
	}
	for _, r := range d.Role {
		e.Roles = append(e.Roles, types.Role(r))
	}
	// employees without a payout wallet are skipped by payroll
	if d.WalletAddress != "" {
		e.Wallet = &types.EmployeeWallet{
			EmployeeID:       e.ID,
			Address:          d.WalletAddress,
			Chain:            d.Chain,
			ProviderWalletID: d.WalletID,
		}
	}
	return e
}
