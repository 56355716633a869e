// Package overpass specifies the contract for OpenStreetMap/Overpass
// business import. Query construction and the import run itself are an
// external collaborator's responsibility; this package only fixes the
// shape the pipeline's business upsert step consumes.
package overpass

import "context"

// Record is one imported business as Overpass/OSM would hand it off: enough
// to build a store.Business via (source="osm", source_id=Record.ID).
type Record struct {
	ID         string
	Name       string
	Category   string
	WebsiteURL string
	Address    string
	Lat, Lon   float64
	CityName   string
	Tags       map[string]string // raw OSM tags, including brand/operator wikidata keys
}

// Importer yields business records for a bounded area; the concrete query
// construction and Overpass API client live outside this module.
type Importer interface {
	Import(ctx context.Context, areaQuery string) ([]Record, error)
}
