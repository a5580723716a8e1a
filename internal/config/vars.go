package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

const (
	ConfigFileName       string = "feescope.toml"
	DefaultBaseDirectory string = "~/.feescope"
	DefaultBitcoinDir    string = "~/.bitcoin"

	IndexFileName string = "blockchain.idx"
)

var (
	LogLevel     = "info"
	LogsPath     = ""
	LogToConsole = true
)

var (
	// BaseDirectory is where feescope keeps its own state (index file,
	// datasets, UTXO snapshots). BitcoinDir is the node's data directory,
	// the parent of the blocks/ folder.
	BaseDirectory = ""
	BitcoinDir    = ""

	BlocksDir    = ""
	IndexPath    = ""
	DatasetsPath = ""
	SnapshotPath = ""

	HTTPHost = "127.0.0.1:8000"
)

type chain int

const (
	Unknown chain = iota
	Mainnet
	Signet
	Regtest
	Testnet3
)

var Chain = Mainnet

func ChainToString(c chain) string {
	switch c {
	case Mainnet:
		return "mainnet"
	case Signet:
		return "signet"
	case Regtest:
		return "regtest"
	case Testnet3:
		return "testnet3"
	default:
		return "unknown"
	}
}

// Magic returns the block-file framing marker for the configured chain.
func Magic() wire.BitcoinNet {
	switch Chain {
	case Mainnet:
		return wire.MainNet
	case Signet:
		return wire.SigNet
	case Regtest:
		return wire.TestNet
	case Testnet3:
		return wire.TestNet3
	default:
		return wire.MainNet
	}
}

// ResolvePath expands a leading ~/ to the user's home directory.
func ResolvePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// SetDirectories derives all paths from BaseDirectory and BitcoinDir.
// Has to be called before anything touches the derived paths.
func SetDirectories() {
	BaseDirectory = ResolvePath(BaseDirectory)
	BitcoinDir = ResolvePath(BitcoinDir)

	BlocksDir = filepath.Join(BitcoinDir, "blocks")
	IndexPath = filepath.Join(BaseDirectory, IndexFileName)
	DatasetsPath = filepath.Join(BaseDirectory, "datasets")
	SnapshotPath = filepath.Join(BaseDirectory, "utxo-snapshot")
}
