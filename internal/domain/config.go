package domain

type Config struct {
	FQDN              string   `yaml:"fqdn"`
	FlaggedCategories []string `yaml:"flaggedCategories"`
}
