package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Directory is an in-memory organisation and employee store.
type Directory struct {
	mu        sync.Mutex
	orgs      map[string]*types.Organisation
	employees map[string][]*types.Employee

	Disbursements map[string][]types.Disbursement
	// Err fails every call when set.
	Err error
}

func NewDirectory() *Directory {
	return &Directory{
		orgs:          make(map[string]*types.Organisation),
		employees:     make(map[string][]*types.Employee),
		Disbursements: make(map[string][]types.Disbursement),
	}
}

// AddOrganisation stores org and its employees in order.
func (d *Directory) AddOrganisation(org types.Organisation, employees ...types.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o := org
	d.orgs[org.ID] = &o
	for i := range employees {
		e := employees[i]
		d.employees[org.ID] = append(d.employees[org.ID], &e)
	}
}

func (d *Directory) ListPayableOrganisations(_ context.Context) ([]types.Organisation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	var out []types.Organisation
	for _, o := range d.orgs {
		if o.IsDeleted || !o.IsApproved {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) GetOrganisation(_ context.Context, id string) (*types.Organisation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	o, ok := d.orgs[id]
	if !ok {
		return nil, fmt.Errorf("%w: organisation %s", types.ErrNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (d *Directory) ListActiveEmployees(_ context.Context, orgID string) ([]types.Employee, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	var out []types.Employee
	for _, e := range d.employees[orgID] {
		if e.IsSuspended {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// Employee returns the stored employee.
func (d *Directory) Employee(orgID, id string) *types.Employee {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.employees[orgID] {
		if e.ID == id {
			cp := *e
			return &cp
		}
	}
	return nil
}

func (d *Directory) RecordDisbursement(_ context.Context, orgID string, disbursement types.Disbursement) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return d.Err
	}
	for _, e := range d.employees[orgID] {
		if e.ID != disbursement.EmployeeID {
			continue
		}
		current, err := types.ParseAmount(e.WalletAmount)
		if err != nil {
			return err
		}
		e.WalletAmount = types.FormatAmount(current.Add(disbursement.Amount))
		d.Disbursements[orgID] = append(d.Disbursements[orgID], disbursement)
		return nil
	}
	return fmt.Errorf("employee %s not found in organisation %s", disbursement.EmployeeID, orgID)
}

func (d *Directory) UpdateTreasuryBalances(_ context.Context, orgID string, balances map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return d.Err
	}
	o, ok := d.orgs[orgID]
	if !ok || o.Treasury == nil {
		return fmt.Errorf("organisation %s has no treasury", orgID)
	}
	if o.Treasury.Balances == nil {
		o.Treasury.Balances = make(map[string]string)
	}
	for chain, bal := range balances {
		o.Treasury.Balances[chain] = bal
	}
	return nil
}

func (d *Directory) SaveTreasuryWallet(_ context.Context, orgID string, wallet *types.TreasuryWallet) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return d.Err
	}
	o, ok := d.orgs[orgID]
	if !ok {
		return fmt.Errorf("organisation %s not found", orgID)
	}
	cp := *wallet
	o.Treasury = &cp
	return nil
}

func (d *Directory) SaveEmployeeWallet(_ context.Context, employeeID string, wallet *types.EmployeeWallet) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return d.Err
	}
	for _, employees := range d.employees {
		for _, e := range employees {
			if e.ID == employeeID {
				cp := *wallet
				e.Wallet = &cp
				return nil
			}
		}
	}
	return fmt.Errorf("employee %s not found", employeeID)
}
