// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "GeoPin-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/geopin.log")

	viper.SetDefault("identity.epsilon", 0.0001)
	viper.SetDefault("identity.surrogateprecision", 6)

	viper.SetDefault("legend.title", "Flagged locations")
	viper.SetDefault("legend.position", "bottomleft")

	viper.SetDefault("style.flaggedradius", 10)
	viper.SetDefault("style.defaultradius", 6)
	viper.SetDefault("style.flaggedcolor", "#d33682")
	viper.SetDefault("style.flaggedstroke", "#ffffff")
	viper.SetDefault("style.defaultcolor", "#268bd2")

	viper.SetDefault("dataset.source", "")
	viper.SetDefault("dataset.format", "")
	viper.SetDefault("dataset.fetchtimeout", 30*time.Second)
	viper.SetDefault("dataset.maxretries", 3)
	viper.SetDefault("dataset.retrydelay", 2*time.Second)
	viper.SetDefault("dataset.cachettl", 30*time.Second)

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", "8080")
	viper.SetDefault("api.metrics", true)
}
