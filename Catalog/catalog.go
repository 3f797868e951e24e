// Package Catalog holds the supply request choices: what can be requested,
// where it is picked up and where it is delivered.
package Catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"Lulan/Models"
)

type Catalog struct {
	Supplies     []string `json:"supplies"`
	Sources      []string `json:"sources"`
	Destinations []string `json:"destinations"`
}

func Default() Catalog {
	return Catalog{
		Supplies: []string{
			"Syringes (5ml)",
			"Bandages",
			"Morphine 10mg",
			"IV Fluids",
			"Gloves",
			"Antiseptic Solution",
			"Gauze Pads",
			"Thermometer",
		},
		Sources: []string{"Supply Room", "Pharmacy", "Storage Room"},
		Destinations: []string{
			"Room A1",
			"Room A2",
			"Room A3",
			"Room B1",
			"Room B2",
			"ICU",
			"Emergency Room",
		},
	}
}

// Load reads a json5 catalog file. An empty path yields the default catalog
// and any list missing from the file keeps its default.
func Load(path string) (Catalog, error) {
	catalog := Default()
	if path == "" {
		return catalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var loaded Catalog
	if err := json5.Unmarshal(data, &loaded); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(loaded.Supplies) > 0 {
		catalog.Supplies = loaded.Supplies
	}
	if len(loaded.Sources) > 0 {
		catalog.Sources = loaded.Sources
	}
	if len(loaded.Destinations) > 0 {
		catalog.Destinations = loaded.Destinations
	}
	return catalog, nil
}

// Validate checks a submission in form order and also rejects choices that
// are not in the catalog.
func (c Catalog) Validate(task Models.NewTask) error {
	if strings.TrimSpace(task.Requester) == "" {
		return Models.Invalid("requester", "Nurse name is required.")
	}
	if len(task.Items) == 0 {
		return Models.Invalid("items", "Please select at least one medical supply.")
	}
	for _, item := range task.Items {
		if !contains(c.Supplies, item) {
			return Models.Invalid("items", fmt.Sprintf("%s is not an available supply.", item))
		}
	}
	if strings.TrimSpace(task.Source) == "" {
		return Models.Invalid("source", "Please select a source location.")
	}
	if !contains(c.Sources, task.Source) {
		return Models.Invalid("source", fmt.Sprintf("%s is not a known source location.", task.Source))
	}
	if strings.TrimSpace(task.Destination) == "" {
		return Models.Invalid("destination", "Please select a destination room.")
	}
	if !contains(c.Destinations, task.Destination) {
		return Models.Invalid("destination", fmt.Sprintf("%s is not a known destination room.", task.Destination))
	}
	return nil
}

func contains(values []string, value string) bool {
	value = strings.TrimSpace(value)
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
