package config

import (
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/feescope/feescope/internal/logging"
)

func LoadConfigs(pathToConfig string) {
	viper.SetConfigFile(pathToConfig)

	// the config file is optional, flags and defaults cover everything
	if err := viper.ReadInConfig(); err != nil {
		logging.L.Debug().Err(err).Msg("no config file detected")
	}

	/* set defaults */
	viper.SetDefault("bitcoin_datadir", DefaultBitcoinDir)
	viper.SetDefault("chain", "main")
	viper.SetDefault("http_host", HTTPHost)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_path", "")
	viper.SetDefault("log_to_console", true)

	viper.AutomaticEnv()
	viper.BindEnv("bitcoin_datadir", "BITCOIN_DATADIR")
	viper.BindEnv("chain", "CHAIN")
	viper.BindEnv("http_host", "HTTP_HOST")
	viper.BindEnv("log_level", "LOG_LEVEL")
	viper.BindEnv("log_path", "LOG_PATH")
	viper.BindEnv("log_to_console", "LOG_TO_CONSOLE")

	/* read and set config variables */
	if BitcoinDir == "" {
		BitcoinDir = viper.GetString("bitcoin_datadir")
	}
	HTTPHost = viper.GetString("http_host")
	LogLevel = viper.GetString("log_level")
	LogsPath = viper.GetString("log_path")
	LogToConsole = viper.GetBool("log_to_console")

	chainInput := viper.GetString("chain")
	switch chainInput {
	case "main":
		Chain = Mainnet
	case "signet":
		Chain = Signet
	case "regtest":
		Chain = Regtest
	case "testnet":
		Chain = Testnet3
	default:
		logging.L.Fatal().Str("chain", chainInput).Msg("chain undefined")
		return
	}

	switch LogLevel {
	case "trace":
		logging.SetLogLevel(zerolog.TraceLevel)
	case "info":
		logging.SetLogLevel(zerolog.InfoLevel)
	case "debug":
		logging.SetLogLevel(zerolog.DebugLevel)
	case "warn":
		logging.SetLogLevel(zerolog.WarnLevel)
	case "error":
		logging.SetLogLevel(zerolog.ErrorLevel)
	}

	if LogsPath != "" || !LogToConsole {
		if err := logging.SetOutputs(LogToConsole, LogsPath); err != nil {
			logging.L.Fatal().Err(err).Msg("could not set up log outputs")
		}
	}

	SetDirectories()
}
