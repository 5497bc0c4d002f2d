package cmd

import (
	"context"
	"errors"
	"net/http"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/strangelove-ventures/cctp-payroll/payroll"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

type transferLookup interface {
	Lookup(key string) (*types.Transfer, bool)
}

type payrollTrigger interface {
	RunNow(ctx context.Context) (payroll.Summary, error)
}

type organisationReader interface {
	GetOrganisation(ctx context.Context, id string) (*types.Organisation, error)
}

type treasuryBalances interface {
	TreasuryBalances(ctx context.Context, logger log.Logger, treasury *types.TreasuryWallet) (sol, base decimal.Decimal)
}

// api serves the read-only transfer and balance lookups and the manual payroll trigger.
type api struct {
	logger        log.Logger
	transfers     transferLookup
	payroll       payrollTrigger
	organisations organisationReader
	balances      treasuryBalances
	treasury      types.TreasurySettings
	metrics       http.Handler
}

type balanceResponse struct {
	OrganisationID string            `json:"organisation_id"`
	Balances       map[string]string `json:"balances"`
	Total          string            `json:"total"`
}

func (s *api) router(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}

	router.GET("/transfers/:hash", s.getTransfer)
	router.POST("/payroll/run", s.runPayroll)
	router.GET("/organisations/:id/balance", s.getBalance)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}
	return router, nil
}

// getTransfer looks a transfer up by burn tx hash or transfer id.
func (s *api) getTransfer(c *gin.Context) {
	key := c.Param("hash")

	if t, ok := s.transfers.Lookup(key); ok {
		c.IndentedJSON(http.StatusOK, t)
		return
	}
	c.IndentedJSON(http.StatusNotFound, gin.H{"message": "transfer not found"})
}

func (s *api) runPayroll(c *gin.Context) {
	// the run outlives the request if the client goes away
	summary, err := s.payroll.RunNow(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		s.logger.Error("Manual payroll run failed", "err", err)
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, summary)
}

func (s *api) getBalance(c *gin.Context) {
	id := c.Param("id")

	org, err := s.organisations.GetOrganisation(c.Request.Context(), id)
	switch {
	case errors.Is(err, types.ErrNotFound):
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "organisation not found"})
		return
	case err != nil:
		s.logger.Error("Unable to load organisation", "organisation", id, "err", err)
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	case !org.Treasury.Provisioned():
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "organisation has no treasury wallet"})
		return
	}

	sol, base := s.balances.TreasuryBalances(c.Request.Context(), s.logger.With("organisation", id), org.Treasury)
	c.IndentedJSON(http.StatusOK, balanceResponse{
		OrganisationID: org.ID,
		Balances: map[string]string{
			s.treasury.SolChain:  types.FormatAmount(sol),
			s.treasury.BaseChain: types.FormatAmount(base),
		},
		Total: types.FormatAmount(sol.Add(base)),
	})
}
