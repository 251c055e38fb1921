// facepay-admin is the deployer's tool for the privileged chaincode surface:
// initializing the registry and ledger, adjusting the fee rate and asset set,
// flipping verification flags and funding demo accounts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/passionate-dev7/facepay/backend/pkg/common"
	"github.com/passionate-dev7/facepay/backend/pkg/fabricclient"
)

var (
	cfg   *common.Config
	chain *fabricclient.Client
)

var rootCmd = &cobra.Command{
	Use:   "facepay-admin",
	Short: "Administer the FacePay chaincode",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = common.LoadConfig()
		var err error
		chain, err = fabricclient.NewClient(
			cfg.FabricConfig,
			cfg.Channel,
			cfg.Chaincode,
			cfg.MSP,
			cfg.CertPath,
			cfg.KeyPath,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to Fabric: %v", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if chain != nil {
			chain.Close()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
