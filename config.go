package cse

import (
	"os"
	"sync"

	"github.com/spf13/viper"
)

// Library configuration, loaded once from $CSE_CONFIG/conf.toml when the
// variable is set. Every knob has a hard default so the library works with
// no file at all.
type _cseconfig struct {
	OEMPrecision    int     // float precision of the OEM writer
	LambertRevsCap  int     // default multi-revolution cap of the Lambert solver
	KeplerTolerance float64 // absolute tolerance of the elliptic inverse Kepler solvers
}

var (
	cfgOnce sync.Once
	config  = _cseconfig{
		OEMPrecision:    6,
		LambertRevsCap:  5,
		KeplerTolerance: keplerAbsTol,
	}
)

func getConfig() _cseconfig {
	cfgOnce.Do(func() {
		confPath := os.Getenv("CSE_CONFIG")
		if confPath == "" {
			return
		}
		viper.SetConfigName("conf")
		viper.AddConfigPath(confPath)
		if err := viper.ReadInConfig(); err != nil {
			return // keep the defaults; a missing file is not an error
		}
		if viper.IsSet("export.oem_precision") {
			config.OEMPrecision = viper.GetInt("export.oem_precision")
		}
		if viper.IsSet("lambert.max_revolutions") {
			config.LambertRevsCap = viper.GetInt("lambert.max_revolutions")
		}
		if viper.IsSet("kepler.tolerance") {
			config.KeplerTolerance = viper.GetFloat64("kepler.tolerance")
		}
	})
	return config
}

// LambertRevsCap exposes the configured multi-revolution default for the
// tools package.
func LambertRevsCap() int { return getConfig().LambertRevsCap }
