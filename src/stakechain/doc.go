// Package stakechain wires the components of a node together: key, block
// store, blockchain, TCP transport, static peers, node and HTTP service, all
// configured from a config.Config.
//
//	conf := config.NewDefaultConfig()
//	conf.SetDataDir("/path/to/datadir")
//	conf.Forger = true
//
//	engine := stakechain.NewStakechain(conf)
//	if err := engine.Init(); err != nil {
//		...
//	}
//	engine.Run()
package stakechain
