package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/stakechain/src/stakechain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a stakechain node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runStakechain,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runStakechain(cmd *cobra.Command, args []string) error {
	engine := stakechain.NewStakechain(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().WithError(err).Error("Cannot initialize engine")
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		_config.Logger().WithField("signal", sig.String()).Info("Shutting down")
		engine.Shutdown()
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Also write the log to this file")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for the P2P transport")
	cmd.Flags().StringP("advertise", "a", _config.AdvertiseAddr, "Advertise IP:Port for the P2P transport")
	cmd.Flags().DurationP("timeout", "t", _config.TCPTimeout, "TCP Timeout")
	cmd.Flags().Duration("idle-timeout", _config.IdleTimeout, "Close peer connections idle for that long (0 disables)")
	cmd.Flags().Int("seen-cache-size", _config.SeenCacheSize, "Number of gossiped messages remembered to avoid loops")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP API")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Dabatabase directory")
	cmd.Flags().Bool("bootstrap", _config.Bootstrap, "Load from database")

	// Forging
	cmd.Flags().Bool("forger", _config.Forger, "Forge blocks")
	cmd.Flags().Duration("forge-interval", _config.ForgeInterval, "Time between forge cycles")
	cmd.Flags().Int("forge-threshold", _config.ForgeThreshold, "Forge as soon as the pool holds that many transactions (0 disables)")
	cmd.Flags().StringSlice("exchange-authorities", _config.ExchangeAuthorities, "Public keys allowed to issue funds (empty allows anyone)")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// rebuild the logger with the final level and log file
	_config.SetLogger(nil)

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	logFields := logrus.Fields{
		"DataDir":             _config.DataDir,
		"BindAddr":            _config.BindAddr,
		"AdvertiseAddr":       _config.AdvertiseAddr,
		"NoService":           _config.NoService,
		"ServiceAddr":         _config.ServiceAddr,
		"Store":               _config.Store,
		"LogLevel":            _config.LogLevel,
		"LogFile":             _config.LogFile,
		"Moniker":             _config.Moniker,
		"TCPTimeout":          _config.TCPTimeout,
		"IdleTimeout":         _config.IdleTimeout,
		"SeenCacheSize":       _config.SeenCacheSize,
		"Forger":              _config.Forger,
		"ForgeInterval":       _config.ForgeInterval,
		"ForgeThreshold":      _config.ForgeThreshold,
		"ExchangeAuthorities": _config.ExchangeAuthorities,
	}

	if _config.Store || _config.Bootstrap {
		logFields["DatabaseDir"] = _config.DatabaseDir
		logFields["Bootstrap"] = _config.Bootstrap
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/stakechain.toml (.json, .yaml also work)
	viper.SetConfigName("stakechain") // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
