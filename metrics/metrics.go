package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// PromMetrics holds the payroll engine's collectors. A nil *PromMetrics records nothing.
type PromMetrics struct {
	reg *prometheus.Registry

	WalletBalance *prometheus.GaugeVec
	Transfers     *prometheus.CounterVec
	Disbursements *prometheus.CounterVec
	PayrollRuns   *prometheus.CounterVec
}

func NewPromMetrics() *PromMetrics {
	reg := prometheus.NewRegistry()

	// labels
	var (
		walletLabels       = []string{"chain", "address", "denom"}
		transferLabels     = []string{"source", "destination", "status"}
		disbursementLabels = []string{"organisation", "outcome"}
		runLabels          = []string{"trigger"}
	)

	m := &PromMetrics{
		reg: reg,
		WalletBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cctp_payroll_wallet_balance",
			Help: "The current balance for a wallet",
		}, walletLabels),
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cctp_payroll_transfers_total",
			Help: "Bridge and direct transfers by terminal status",
		}, transferLabels),
		Disbursements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cctp_payroll_disbursements_total",
			Help: "Employee disbursements by outcome",
		}, disbursementLabels),
		PayrollRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cctp_payroll_runs_total",
			Help: "Payroll runs by trigger",
		}, runLabels),
	}

	reg.MustRegister(m.WalletBalance, m.Transfers, m.Disbursements, m.PayrollRuns)

	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *PromMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Serve exposes /metrics on port until the listener fails.
func (m *PromMetrics) Serve(port int16) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

func (m *PromMetrics) SetWalletBalance(chain, address, denom string, balance decimal.Decimal) {
	if m == nil {
		return
	}
	m.WalletBalance.WithLabelValues(chain, address, denom).Set(balance.InexactFloat64())
}

func (m *PromMetrics) IncTransfer(source, destination, status string) {
	if m == nil {
		return
	}
	m.Transfers.WithLabelValues(source, destination, status).Inc()
}

func (m *PromMetrics) IncDisbursement(organisation, outcome string) {
	if m == nil {
		return
	}
	m.Disbursements.WithLabelValues(organisation, outcome).Inc()
}

func (m *PromMetrics) IncPayrollRun(trigger string) {
	if m == nil {
		return
	}
	m.PayrollRuns.WithLabelValues(trigger).Inc()
}
