// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package common

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Build metadata; these defaults can be overridden at link time with
// go build -ldflags "-X github.com/btcforknode/headerchain/common.Version=..."
var (
	Version   = "v0.0.0.0-dev"
	GitCommit = ""
	Branch    = ""
	BuildDate = ""
	BuildUser = ""
	NodeName  = "headerchaind"
)

// Options holds the daemon's runtime configuration, populated from
// cobra flags and viper-bound environment/config-file values.
type Options struct {
	HTTPBindAddr        string `json:"http_bind_address,omitempty"`
	TLSCertPath         string `json:"tls_cert_path,omitempty"`
	TLSKeyPath          string `json:"tls_cert_key,omitempty"`
	LogLevel            uint64 `json:"log_level,omitempty"`
	LogFile             string `json:"log_file,omitempty"`
	RPCUser             string `json:"rpcuser"`
	RPCPassword         string `json:"rpcpassword"`
	RPCHost             string `json:"rpchost"`
	RPCPort             string `json:"rpcport"`
	NoTLSVeryInsecure   bool   `json:"no_tls_very_insecure,omitempty"`
	GenCertVeryInsecure bool   `json:"gen_cert_very_insecure,omitempty"`
	DataDir             string `json:"data_dir"`
	Network             string `json:"network"`
}

// Time allows time-related functions to be mocked for testing, so that
// tests can be deterministic and don't require real time to elapse. In
// production these point to the standard library `time` functions; in
// unit tests they point to mock functions set by the specific test.
var Time struct {
	Sleep func(d time.Duration)
	Now   func() time.Time
}

func init() {
	Time.Sleep = time.Sleep
	Time.Now = time.Now
}

// Log as a global variable simplifies logging.
var Log *logrus.Entry
