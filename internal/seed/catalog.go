package seed

import (
	_ "embed"
	"fmt"

	"careline/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the demo supplier list with the stock each one provides.
type Catalog struct {
	Suppliers []CatalogSupplier `yaml:"suppliers"`
}

// CatalogSupplier is one supplier entry of the catalog.
type CatalogSupplier struct {
	Name        string        `yaml:"name"`
	ContactName string        `yaml:"contactName"`
	Email       string        `yaml:"email"`
	Phone       string        `yaml:"phone"`
	Items       []CatalogItem `yaml:"items"`
}

// CatalogItem is one stocked item of a supplier.
type CatalogItem struct {
	Name         string `yaml:"name"`
	Category     string `yaml:"category"`
	Unit         string `yaml:"unit"`
	Quantity     int    `yaml:"quantity"`
	ReorderLevel int    `yaml:"reorderLevel"`
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, s := range c.Suppliers {
		if s.Name == "" {
			return nil, fmt.Errorf("catalog supplier without a name")
		}
		for _, it := range s.Items {
			if _, err := models.ParseInventoryCategory(it.Category); err != nil {
				return nil, fmt.Errorf("catalog item %q: %w", it.Name, err)
			}
			if it.Quantity < 0 || it.ReorderLevel < 0 {
				return nil, fmt.Errorf("catalog item %q: negative stock levels", it.Name)
			}
		}
	}
	return &c, nil
}
