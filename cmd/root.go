package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/geopin-go/cmd/authors"
	"github.com/tphakala/geopin-go/cmd/license"
	"github.com/tphakala/geopin-go/cmd/load"
	"github.com/tphakala/geopin-go/cmd/serve"
	"github.com/tphakala/geopin-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "geopin",
		Short: "GeoPin-Go CLI",
		Long:  "Annotate geographic point datasets with flags and notes, and keep every view of them in sync.",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		load.Command(settings),
		authors.Command(),
		license.Command(),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64Var(&settings.Identity.Epsilon, "epsilon", viper.GetFloat64("identity.epsilon"), "Coordinate tolerance in degrees for record identity matching")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
