package commands

import (
	"github.com/mosaicnetworks/stakechain/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for stakechain
var RootCmd = &cobra.Command{
	Use:              "stakechain",
	Short:            "stakechain node",
	TraverseChildren: true,
}
