package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the registry and ledger under the calling identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := chain.SubmitTransaction("registry:Initialize"); err != nil {
			return fmt.Errorf("registry initialize failed: %v", err)
		}
		if _, err := chain.SubmitTransaction("ledger:Initialize", cfg.RegistryAdmin); err != nil {
			return fmt.Errorf("ledger initialize failed: %v", err)
		}
		fmt.Println("registry and ledger initialized")
		return nil
	},
}

var feeRateCmd = &cobra.Command{
	Use:   "fee-rate <bps>",
	Short: "Set the protocol fee rate in basis points (max 1000)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bps, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid bps value: %v", err)
		}
		if _, err := chain.SubmitTransaction("ledger:SetFeeRateBps", strconv.FormatInt(bps, 10), cfg.LedgerAdmin); err != nil {
			return err
		}
		fmt.Printf("fee rate set to %d bps\n", bps)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <owner-account>",
	Short: "Mark a registered identity as verified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revoke, _ := cmd.Flags().GetBool("revoke")
		verified := strconv.FormatBool(!revoke)
		if _, err := chain.SubmitTransaction("registry:SetVerified", args[0], verified, cfg.RegistryAdmin); err != nil {
			return err
		}
		fmt.Printf("verification for %s set to %s\n", args[0], verified)
		return nil
	},
}

var issueCmd = &cobra.Command{
	Use:   "issue <account> <amount>",
	Short: "Mint native units to an account (demo funding)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %v", err)
		}
		if _, err := chain.SubmitTransaction("ledger:Issue", args[0], strconv.FormatInt(amount, 10), cfg.LedgerAdmin); err != nil {
			return err
		}
		fmt.Printf("issued %d to %s\n", amount, args[0])
		return nil
	},
}

var assetCmd = &cobra.Command{
	Use:   "asset <symbol> [minimum]",
	Short: "Add or update a supported settlement asset",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if remove, _ := cmd.Flags().GetBool("remove"); remove {
			_, err := chain.SubmitTransaction("ledger:RemoveSupportedAsset", args[0], cfg.LedgerAdmin)
			return err
		}
		if len(args) < 2 {
			return fmt.Errorf("minimum payment amount required when adding an asset")
		}
		minimum, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid minimum: %v", err)
		}
		_, err = chain.SubmitTransaction("ledger:AddSupportedAsset", args[0], strconv.FormatInt(minimum, 10), cfg.LedgerAdmin)
		return err
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print registry and ledger statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := chain.EvaluateTransaction("registry:RegistryStats", cfg.RegistryAdmin)
		if err != nil {
			return err
		}
		totals, err := chain.EvaluateTransaction("ledger:SystemTotals", cfg.LedgerAdmin)
		if err != nil {
			return err
		}
		fmt.Printf("registry: %s\nledger:   %s\n", registry, totals)
		return nil
	},
}

func init() {
	verifyCmd.Flags().Bool("revoke", false, "revoke verification instead of granting it")
	assetCmd.Flags().Bool("remove", false, "remove the asset instead of adding it")

	rootCmd.AddCommand(initCmd, feeRateCmd, verifyCmd, issueCmd, assetCmd, statsCmd)
}
