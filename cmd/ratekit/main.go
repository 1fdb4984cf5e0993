// ratekit - Rare-event transition rates from biased MD trajectories
//
// ratekit estimates transition rates from ensembles of biased
// (enhanced-sampling) molecular-dynamics runs with three estimators:
//
//   - iMetaD: inverse mean rescaled residence time and exponential CDF fit
//   - KTR: hazard model on the ensemble-averaged running-max bias spline
//   - EATR: hazard model on the ensemble-averaged instantaneous bias
//
// plus bootstrap standard errors and Kolmogorov-Smirnov consistency
// brackets for the fitted parameters.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ratekit/ratekit/pkg/config"
	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/export"
	"github.com/ratekit/ratekit/pkg/rates"
	"github.com/ratekit/ratekit/pkg/spinner"
	"github.com/ratekit/ratekit/pkg/trajectory"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Config file path (default: ./ratekit.yaml)")
	initConfig := flag.Bool("init", false, "Initialize default config file")
	outPath := flag.String("out", "", "Results CSV path (overrides export.path)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ratekit %s\n", version)
		os.Exit(0)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	if *initConfig {
		if err := config.InitConfig(cfgPath); err != nil {
			fail(err)
		}
		fmt.Printf("Config initialized at: %s\n", cfgPath)
		fmt.Println("Edit this file to point at your run directories and choose analyses.")
		os.Exit(0)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fail(err)
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	spin := spinner.New("Loading trajectory ensemble")
	spin.Start()
	ens, err := trajectory.LoadEnsemble(cfg.Directory, cfg.Runs, cfg.Schema(), cfg.Beta, cfg.LoaderOptions())
	if err != nil {
		spin.StopWithFailure("failed to load trajectories")
		fail(err)
	}
	spin.StopWithSuccess(fmt.Sprintf("Loaded %d replicas", len(ens.Replicas)))

	spin = spinner.New("Estimating rates")
	spin.Start()
	res, err := rates.Run(ens, cfg.RateOptions())
	if err != nil {
		spin.StopWithFailure("rate estimation failed")
		fail(err)
	}
	spin.StopWithSuccess("Rate estimation complete")

	if !cfg.Export.AutoExport && *outPath == "" {
		return
	}
	path := cfg.Export.Path
	if *outPath != "" {
		path = *outPath
	}
	if err := writeResults(path, res, cfg); err != nil {
		fail(err)
	}
	fmt.Printf("Results written to %s\n", path)
}

func writeResults(path string, res *rates.Results, cfg *config.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to create results file")
	}
	defer f.Close()

	csvCfg := export.DefaultCSVConfig()
	if cfg.Export.Dialect != "" {
		csvCfg.Dialect = export.CSVDialect(cfg.Export.Dialect)
	}
	if cfg.Export.Precision > 0 {
		csvCfg.Precision = cfg.Export.Precision
	}
	return export.ExportResultsToCSV(f, []*rates.Results{res}, csvCfg)
}

func fail(err error) {
	errors.DefaultFormatter().Print(err)
	os.Exit(1)
}
