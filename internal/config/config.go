package config

import (
	"os"

	"github.com/go-yaml/yaml"

	"github.com/oakmere/adviserdesk"
)

type Config struct {
	Portal Portal `yaml:"portal"`
	Server Server `yaml:"server"`
}

type Portal struct {
	FQDN              string   `yaml:"fqdn"`
	FlaggedCategories []string `yaml:"flaggedCategories"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if len(config.Portal.FlaggedCategories) == 0 {
		config.Portal.FlaggedCategories = adviserdesk.DefaultFlaggedCategories
	}

	return config, nil
}
