package config

import (
	"net"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// deploymentEnv holds the split-out variables the deployment manifests use.
// They fill in the composite settings when the composite variable itself is
// not set.
type deploymentEnv struct {
	HTTPPort string `env:"HTTP_PORT"`
	DBHost   string `env:"DB_HOST"`
	DBPort   string `env:"DB_PORT"`
	DBName   string `env:"DB_NAME"`
	DBUser   string `env:"DB_USER"`
	DBPass   string `env:"DB_PASS"`
	OTLPHost string `env:"OTLP_HOST"`
	OTLPPort string `env:"OTLP_PORT"`
}

// parseEnv overlays Config fields whose env tag names a variable present in
// the process environment. Absent variables leave the current value intact.
// Durations use time.ParseDuration syntax ("15m", "87600h").
//
// HTTP_PORT, DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASS and OTLP_HOST/OTLP_PORT
// are honoured too; HTTP_ADDR, DATABASE_DSN and OTLP_ENDPOINT win over them.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}

	var d deploymentEnv
	if err := cleanenv.ReadEnv(&d); err != nil {
		panic(err)
	}
	d.apply(config)
}

func (d deploymentEnv) apply(config *Config) {
	if _, ok := os.LookupEnv("HTTP_ADDR"); !ok && d.HTTPPort != "" {
		config.EndpointAddrHTTP = ":" + d.HTTPPort
	}

	if _, ok := os.LookupEnv("DATABASE_DSN"); !ok && d.hasDB() {
		config.DatabaseDSN = d.dsn()
	}

	if _, ok := os.LookupEnv("OTLP_ENDPOINT"); !ok && (d.OTLPHost != "" || d.OTLPPort != "") {
		config.OTLPEndpoint = net.JoinHostPort(orDefault(d.OTLPHost, "localhost"), orDefault(d.OTLPPort, "4318"))
	}
}

func (d deploymentEnv) hasDB() bool {
	return d.DBHost != "" || d.DBPort != "" || d.DBName != "" || d.DBUser != "" || d.DBPass != ""
}

func (d deploymentEnv) dsn() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(orDefault(d.DBUser, "postgres"), orDefault(d.DBPass, "postgres")),
		Host:     net.JoinHostPort(orDefault(d.DBHost, "localhost"), orDefault(d.DBPort, "5432")),
		Path:     "/" + orDefault(d.DBName, "authorization"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
