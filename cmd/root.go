package cmd

import (
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btcforknode/headerchain/api"
	"github.com/btcforknode/headerchain/chain"
	"github.com/btcforknode/headerchain/common"
	"github.com/btcforknode/headerchain/common/logging"
	"github.com/btcforknode/headerchain/ingest"
)

var cfgFile string
var logger = logrus.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "headerchaind",
	Short: "headerchaind tracks a Bitcoin-compatible header chain and serves its state over HTTP",
	Long: `headerchaind is a backend service that ingests block headers from a
         bitcoind-compatible RPC node, validates their proof-of-work and
         chain linkage, and exposes the resulting header chain over HTTP`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := &common.Options{
			HTTPBindAddr:        viper.GetString("http-bind-addr"),
			TLSCertPath:         viper.GetString("tls-cert"),
			TLSKeyPath:          viper.GetString("tls-key"),
			LogLevel:            viper.GetUint64("log-level"),
			LogFile:             viper.GetString("log-file"),
			RPCUser:             viper.GetString("rpcuser"),
			RPCPassword:         viper.GetString("rpcpassword"),
			RPCHost:             viper.GetString("rpchost"),
			RPCPort:             viper.GetString("rpcport"),
			NoTLSVeryInsecure:   viper.GetBool("no-tls-very-insecure"),
			GenCertVeryInsecure: viper.GetBool("gen-cert-very-insecure"),
			DataDir:             viper.GetString("data-dir"),
			Network:             viper.GetString("network"),
		}

		common.Log.Debugf("Options: %#v\n", opts)

		if err := startServer(opts); err != nil {
			common.Log.WithFields(logrus.Fields{
				"error": err,
			}).Fatal("couldn't start headerchaind")
		}
	},
}

func startServer(opts *common.Options) error {
	if opts.LogFile != "" {
		output, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			common.Log.WithFields(logrus.Fields{
				"error": err,
				"path":  opts.LogFile,
			}).Fatal("couldn't open log file")
		}
		defer output.Close()
		logger.SetOutput(output)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.SetLevel(logrus.Level(opts.LogLevel))
	logging.LogToStderr = true

	common.Log.WithFields(logrus.Fields{
		"gitCommit": common.GitCommit,
		"buildDate": common.BuildDate,
		"buildUser": common.BuildUser,
	}).Infof("Starting headerchaind process version %s", common.Version)

	net := chain.ByName(opts.Network)
	if net == nil {
		common.Log.WithFields(logrus.Fields{"network": opts.Network}).Fatal("unrecognized network")
	}

	dbPath := filepath.Join(opts.DataDir, "db", net.Name)
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return fmt.Errorf("creating db directory %s: %w", dbPath, err)
	}

	idx, err := chain.NewIndex(dbPath, net, common.Log)
	if err != nil {
		return fmt.Errorf("opening header index: %w", err)
	}
	if idx.Height() < 0 {
		if err := idx.Add(&net.Genesis); err != nil {
			return fmt.Errorf("seeding genesis header: %w", err)
		}
	}

	rpc, err := ingest.New(ingest.Config{
		Host:       opts.RPCHost + ":" + opts.RPCPort,
		User:       opts.RPCUser,
		Pass:       opts.RPCPassword,
		DisableTLS: true,
	}, common.Log)
	if err != nil {
		return fmt.Errorf("connecting to RPC node: %w", err)
	}

	stop := make(chan struct{})
	go rpc.Run(idx, stop)

	server := api.New(idx, common.Log)

	var cert *tls.Certificate
	if !opts.NoTLSVeryInsecure {
		if opts.GenCertVeryInsecure {
			common.Log.Warning("Certificate and key not provided, generating self signed values")
			cert = common.GenerateCerts()
		} else {
			loaded, err := tls.LoadX509KeyPair(opts.TLSCertPath, opts.TLSKeyPath)
			if err != nil {
				common.Log.WithFields(logrus.Fields{
					"cert_file": opts.TLSCertPath,
					"key_path":  opts.TLSKeyPath,
					"error":     err,
				}).Fatal("couldn't load TLS credentials")
			}
			cert = &loaded
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-signals
		close(stop)
		idx.Close()
		common.Log.WithFields(logrus.Fields{
			"signal": s.String(),
		}).Info("caught signal, stopping headerchaind")
		os.Exit(0)
	}()

	common.Log.Infof("Starting HTTP server on %s", opts.HTTPBindAddr)
	return server.Run(opts.HTTPBindAddr, cert)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(verifyCmd)
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is current directory, headerchain.yaml)")
	rootCmd.Flags().String("http-bind-addr", "127.0.0.1:9068", "the address to listen for http on")
	rootCmd.Flags().String("tls-cert", "./cert.pem", "the path to a TLS certificate")
	rootCmd.Flags().String("tls-key", "./cert.key", "the path to a TLS key file")
	rootCmd.Flags().Int("log-level", int(logrus.InfoLevel), "log level (logrus 1-7)")
	rootCmd.Flags().String("log-file", "./headerchaind.log", "log file to write to")
	rootCmd.Flags().String("rpcuser", "", "RPC user name")
	rootCmd.Flags().String("rpcpassword", "", "RPC password")
	rootCmd.Flags().String("rpchost", "127.0.0.1", "RPC host")
	rootCmd.Flags().String("rpcport", "8332", "RPC host port")
	rootCmd.Flags().Bool("no-tls-very-insecure", false, "run without TLS, only for debugging, DO NOT use in production")
	rootCmd.Flags().Bool("gen-cert-very-insecure", false, "run with self-signed TLS certificate, only for debugging, DO NOT use in production")
	rootCmd.Flags().String("data-dir", "/var/lib/headerchaind", "data directory (such as db)")
	rootCmd.Flags().String("network", "mainnet", "network to track: mainnet or regtest")

	viper.BindPFlag("http-bind-addr", rootCmd.Flags().Lookup("http-bind-addr"))
	viper.SetDefault("http-bind-addr", "127.0.0.1:9068")
	viper.BindPFlag("tls-cert", rootCmd.Flags().Lookup("tls-cert"))
	viper.SetDefault("tls-cert", "./cert.pem")
	viper.BindPFlag("tls-key", rootCmd.Flags().Lookup("tls-key"))
	viper.SetDefault("tls-key", "./cert.key")
	viper.BindPFlag("log-level", rootCmd.Flags().Lookup("log-level"))
	viper.SetDefault("log-level", int(logrus.InfoLevel))
	viper.BindPFlag("log-file", rootCmd.Flags().Lookup("log-file"))
	viper.SetDefault("log-file", "./headerchaind.log")
	viper.BindPFlag("rpcuser", rootCmd.Flags().Lookup("rpcuser"))
	viper.BindPFlag("rpcpassword", rootCmd.Flags().Lookup("rpcpassword"))
	viper.BindPFlag("rpchost", rootCmd.Flags().Lookup("rpchost"))
	viper.SetDefault("rpchost", "127.0.0.1")
	viper.BindPFlag("rpcport", rootCmd.Flags().Lookup("rpcport"))
	viper.SetDefault("rpcport", "8332")
	viper.BindPFlag("no-tls-very-insecure", rootCmd.Flags().Lookup("no-tls-very-insecure"))
	viper.SetDefault("no-tls-very-insecure", false)
	viper.BindPFlag("gen-cert-very-insecure", rootCmd.Flags().Lookup("gen-cert-very-insecure"))
	viper.SetDefault("gen-cert-very-insecure", false)
	viper.BindPFlag("data-dir", rootCmd.Flags().Lookup("data-dir"))
	viper.SetDefault("data-dir", "/var/lib/headerchaind")
	viper.BindPFlag("network", rootCmd.Flags().Lookup("network"))
	viper.SetDefault("network", "mainnet")

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})

	onexit := func() {
		fmt.Printf("headerchaind died with a fatal error. Check logfile for details.\n")
	}

	common.Log = logger.WithFields(logrus.Fields{
		"app": "headerchaind",
	})

	logrus.RegisterExitHandler(onexit)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("headerchain")
	}

	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
