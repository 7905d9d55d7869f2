// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "wtracker")
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "logs/wtracker.log")
	viper.SetDefault("main.log.level", "info")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10485760)

	viper.SetDefault("database.type", DatabaseSQLite)
	viper.SetDefault("database.sqlite.path", "wtracker.db")
	viper.SetDefault("database.mysql.username", "root")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "forecasts")
	viper.SetDefault("database.mysql.host", "127.0.0.1")
	viper.SetDefault("database.mysql.port", "3306")

	viper.SetDefault("openweather.apikey", "")
	viper.SetDefault("openweather.endpoint", "https://api.openweathermap.org/data/2.5/forecast")
	viper.SetDefault("openweather.timeout", 10*time.Second)
	viper.SetDefault("openweather.requestsperminute", 60)

	viper.SetDefault("poll.enabled", false)
	viper.SetDefault("poll.interval", 180)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.listen", ":8080")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
}
