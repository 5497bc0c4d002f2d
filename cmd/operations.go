package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strangelove-ventures/cctp-payroll/payroll"
	"github.com/strangelove-ventures/cctp-payroll/transfer"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// Runs payroll once for every payable organisation, or for a single one
func runPayrollCmd(a *AppState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-payroll",
		Short: "Run payroll now and print the summary",
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s run-payroll
$ %s run-payroll --org 65f0c2a1e4b0a1b2c3d4e5f6`, appName, appName)),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.InitAppState()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orgID, _ := cmd.Flags().GetString(flagOrganisation)

			svc, err := a.newServices(ctx, true)
			if err != nil {
				return err
			}
			defer svc.close(ctx)

			if orgID != "" {
				org, err := svc.directory.GetOrganisation(ctx, orgID)
				if err != nil {
					return err
				}
				res, err := svc.runner.RunOrganisation(ctx, a.Logger.With("organisation", orgID), *org)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}

			scheduler, err := payroll.NewScheduler(svc.runner, svc.directory, a.Config.Payroll, a.Logger, svc.metrics)
			if err != nil {
				return err
			}
			summary, err := scheduler.RunNow(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
	return addOrganisationFlag(cmd, false)
}

// Moves funds from an organisation treasury to a recipient on any configured chain
func transferCmd(a *AppState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer USDC from an organisation treasury",
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s transfer --org 65f0c2a1e4b0a1b2c3d4e5f6 --from BASE-SEPOLIA --to SOL-DEVNET --recipient <address> --amount 12.5`, appName)),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.InitAppState()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orgID, _ := cmd.Flags().GetString(flagOrganisation)
			from, _ := cmd.Flags().GetString(flagFrom)
			to, _ := cmd.Flags().GetString(flagTo)
			recipient, _ := cmd.Flags().GetString(flagRecipient)
			amountStr, _ := cmd.Flags().GetString(flagAmount)

			amount, err := types.ParseAmount(amountStr)
			if err != nil {
				return err
			}

			svc, err := a.newServices(ctx, true)
			if err != nil {
				return err
			}
			defer svc.close(ctx)

			org, err := svc.organisation(ctx, orgID)
			if err != nil {
				return err
			}

			t, err := svc.orchestrator.Transfer(ctx, a.Logger.With("organisation", orgID), transfer.Request{
				Treasury:         org.Treasury,
				Recipient:        recipient,
				Amount:           amount,
				SourceChain:      from,
				DestinationChain: to,
			})
			if err != nil {
				return resumeHint(err)
			}
			return printJSON(cmd, t)
		},
	}
	addOrganisationFlag(cmd, true)
	addRouteFlags(cmd)
	cmd.Flags().String(flagRecipient, "", "recipient address on the destination chain")
	cmd.Flags().String(flagAmount, "", "amount in USDC")
	_ = cmd.MarkFlagRequired(flagRecipient)
	_ = cmd.MarkFlagRequired(flagAmount)
	return cmd
}

// resumeHint names the resume-mint invocation for transfers that burned without minting.
func resumeHint(err error) error {
	var terr *types.TransferError
	if !errors.As(err, &terr) || !terr.IsPartial() || terr.Transfer == nil {
		return err
	}
	t := terr.Transfer
	return fmt.Errorf("%w\nfunds are burned; complete the transfer with: %s resume-mint --from %s --to %s --burn-tx %s",
		err, appName, t.SourceChain, t.DestinationChain, t.BurnTxHash)
}

// Completes the mint of a transfer whose burn is confirmed
func resumeMintCmd(a *AppState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume-mint",
		Short: "Mint a confirmed burn on its destination chain",
		Long:  "Fetches the attestation for a confirmed burn and mints it on the destination. The source chain is never burned again.",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.InitAppState()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orgID, _ := cmd.Flags().GetString(flagOrganisation)
			from, _ := cmd.Flags().GetString(flagFrom)
			to, _ := cmd.Flags().GetString(flagTo)
			burnTx, _ := cmd.Flags().GetString(flagBurnTx)

			// evm mints without a local key are signed by the treasury wallet
			svc, err := a.newServices(ctx, orgID != "")
			if err != nil {
				return err
			}
			defer svc.close(ctx)

			pending := &types.Transfer{
				SourceChain:      from,
				DestinationChain: to,
				BurnTxHash:       burnTx,
				Status:           types.StatusBurnConfirmed,
			}
			if orgID != "" {
				org, err := svc.organisation(ctx, orgID)
				if err != nil {
					return err
				}
				pending.Treasury = org.Treasury
			}

			t, err := svc.orchestrator.ResumeMint(ctx, a.Logger, pending)
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
	addOrganisationFlag(cmd, false)
	addRouteFlags(cmd)
	cmd.Flags().String(flagBurnTx, "", "burn transaction hash or signature")
	_ = cmd.MarkFlagRequired(flagBurnTx)
	return cmd
}

// Prints a wallet balance, or both sides of an organisation treasury
func balanceCmd(a *AppState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print a USDC balance",
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s balance --org 65f0c2a1e4b0a1b2c3d4e5f6
$ %s balance --chain BASE-SEPOLIA --address 0x...`, appName, appName)),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.InitAppState()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orgID, _ := cmd.Flags().GetString(flagOrganisation)
			chain, _ := cmd.Flags().GetString(flagChain)
			address, _ := cmd.Flags().GetString(flagAddress)
			asset, _ := cmd.Flags().GetString(flagAsset)

			if orgID == "" && (chain == "" || address == "") {
				return fmt.Errorf("either --%s or both --%s and --%s are required", flagOrganisation, flagChain, flagAddress)
			}

			svc, err := a.newServices(ctx, orgID != "")
			if err != nil {
				return err
			}
			defer svc.close(ctx)

			if orgID == "" {
				bal, err := svc.balances.GetBalanceStrict(ctx, address, chain, asset)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), types.FormatAmount(bal))
				return nil
			}

			org, err := svc.organisation(ctx, orgID)
			if err != nil {
				return err
			}
			sol, base := svc.balances.TreasuryBalances(ctx, a.Logger.With("organisation", orgID), org.Treasury)
			return printJSON(cmd, balanceResponse{
				OrganisationID: org.ID,
				Balances: map[string]string{
					a.Config.Treasury.SolChain:  types.FormatAmount(sol),
					a.Config.Treasury.BaseChain: types.FormatAmount(base),
				},
				Total: types.FormatAmount(sol.Add(base)),
			})
		},
	}
	addOrganisationFlag(cmd, false)
	cmd.Flags().String(flagChain, "", "chain symbol")
	cmd.Flags().String(flagAddress, "", "wallet address")
	cmd.Flags().String(flagAsset, "", "token address (defaults to the chain's USDC)")
	return cmd
}

// Provisions custodial wallets for an organisation treasury or an employee
func provisionCmd(a *AppState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the treasury wallet set of an organisation, or an employee wallet",
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s provision --org 65f0c2a1e4b0a1b2c3d4e5f6
$ %s provision --employee 65f0c2a1e4b0a1b2c3d4e5f7 --username ada --chain SOL-DEVNET`, appName, appName)),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.InitAppState()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orgID, _ := cmd.Flags().GetString(flagOrganisation)
			employeeID, _ := cmd.Flags().GetString(flagEmployee)
			username, _ := cmd.Flags().GetString(flagUsername)
			chain, _ := cmd.Flags().GetString(flagChain)

			if (orgID == "") == (employeeID == "") {
				return fmt.Errorf("exactly one of --%s and --%s is required", flagOrganisation, flagEmployee)
			}

			svc, err := a.newServices(ctx, true)
			if err != nil {
				return err
			}
			defer svc.close(ctx)

			if orgID != "" {
				org, err := svc.directory.GetOrganisation(ctx, orgID)
				if err != nil {
					return err
				}
				wallet, err := svc.treasury.EnsureTreasury(ctx, a.Logger.With("organisation", orgID), org)
				if err != nil {
					return err
				}
				return printJSON(cmd, wallet)
			}

			if username == "" || chain == "" {
				return fmt.Errorf("--%s and --%s are required with --%s", flagUsername, flagChain, flagEmployee)
			}
			wallet, err := svc.treasury.ProvisionEmployeeWallet(ctx, a.Logger.With("employee", employeeID), employeeID, username, chain)
			if err != nil {
				return err
			}
			return printJSON(cmd, wallet)
		},
	}
	addOrganisationFlag(cmd, false)
	cmd.Flags().String(flagEmployee, "", "employee id")
	cmd.Flags().String(flagUsername, "", "employee username, used to name the wallet set")
	cmd.Flags().String(flagChain, "", "chain of the employee wallet")
	return cmd
}
