package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Auth struct {
		JWTSecret       string `mapstructure:"jwt_secret"`
		AccessTokenTTL  int    `mapstructure:"access_token_ttl_minutes"`
		RefreshTokenTTL int    `mapstructure:"refresh_token_ttl_minutes"`
		Kakao           struct {
			ClientID     string `mapstructure:"client_id"`
			ClientSecret string `mapstructure:"client_secret"`
		} `mapstructure:"kakao"`
	} `mapstructure:"auth"`

	AWS struct {
		Region string
		Bucket string
		S3URL  string `mapstructure:"s3_url"`
	} `mapstructure:"aws"`

	Naver struct {
		BaseURL      string `mapstructure:"base_url"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"naver"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	// Secrets can be overridden through the environment (APP_*).
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
