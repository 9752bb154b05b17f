package commands

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/config"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logging"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "meshbuf",
	Short: "Build, process and upload static meshes to the GPU",
	Long: `meshbuf builds procedural static meshes or imports glTF models, runs mesh-processing steps over them
(tangents, vertex splitting, barycentric coordinates, transforms) on a worker
pool, and uploads the result to a WebGPU device as vertex and index buffers.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.oxy-mesh/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the configuration and initializes the shared logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Init(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Console); err != nil {
		return nil, err
	}
	return cfg, nil
}
