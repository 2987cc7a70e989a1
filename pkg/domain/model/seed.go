package model

import "github.com/m-mizutani/goerr/v2"

// SeedProduct is one catalog entry in a seed configuration file
type SeedProduct struct {
	Name  string `yaml:"name"`
	SKU   string `yaml:"sku"`
	Price int64  `yaml:"price"`
	Cost  int64  `yaml:"cost"`
	Stock int    `yaml:"stock"`
}

// SeedConfig is the catalog seed loaded from a YAML file
type SeedConfig struct {
	Products []SeedProduct `yaml:"products"`
}

// Validate checks the seed configuration
func (c *SeedConfig) Validate() error {
	if len(c.Products) == 0 {
		return goerr.New("seed configuration has no products")
	}
	for i, p := range c.Products {
		if p.Name == "" {
			return goerr.New("seed product requires a name", goerr.V("index", i))
		}
		if p.Price < 0 || p.Cost < 0 || p.Stock < 0 {
			return goerr.New("seed product values must not be negative",
				goerr.V("name", p.Name))
		}
	}
	return nil
}
