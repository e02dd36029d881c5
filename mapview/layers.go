package mapview

import (
	"strconv"
	"strings"

	"dost-atlas/filter"
	"dost-atlas/models"
)

// Region is the fixed frame operators always see.
var Region = Viewport{
	Center: models.Coordinates{Lat: 13.4167, Lng: 121.9167},
	Zoom:   10,
}

const (
	RegionName    = "Province of Marinduque"
	RegionCountry = "Philippines"
	PlaceholderID = "region-centroid"
	GuidanceText  = "No implementations or projects recorded yet. Add records to see them on the map."
)

// Viewport is a map centre and slippy-map zoom level.
type Viewport struct {
	Center models.Coordinates `json:"center"`
	Zoom   int                `json:"zoom"`
}

// BaseLayerDef describes the tile imagery behind a base layer id.
type BaseLayerDef struct {
	ID          filter.BaseLayer `json:"id"`
	Label       string           `json:"label"`
	URL         string           `json:"url"`
	Attribution string           `json:"attribution"`
	Subdomains  []string         `json:"subdomains,omitempty"`
}

// TileURL expands the {s},{z},{x},{y} template. sub picks a subdomain
// round-robin.
func (b BaseLayerDef) TileURL(z, x, y, sub int) string {
	s := ""
	if len(b.Subdomains) > 0 {
		if sub < 0 {
			sub = -sub
		}
		s = b.Subdomains[sub%len(b.Subdomains)]
	}
	return strings.NewReplacer(
		"{s}", s,
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	).Replace(b.URL)
}

var baseLayers = map[filter.BaseLayer]BaseLayerDef{
	filter.BaseStandard: {
		ID:          filter.BaseStandard,
		Label:       "Map",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
		Subdomains:  []string{"a", "b", "c"},
	},
	filter.BaseSatellite: {
		ID:          filter.BaseSatellite,
		Label:       "Satellite",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles © Esri — Source: Esri, GeoEye, Earthstar Geographics, CNES/Airbus DS, USDA, USGS, AeroGRID, IGN, and the GIS User Community",
	},
}

// BaseLayerFor returns the definition for id, falling back to satellite.
func BaseLayerFor(id filter.BaseLayer) BaseLayerDef {
	if def, ok := baseLayers[id]; ok {
		return def
	}
	return baseLayers[filter.BaseSatellite]
}

// BaseLayers lists the definitions in switcher order.
func BaseLayers() []BaseLayerDef {
	return []BaseLayerDef{baseLayers[filter.BaseStandard], baseLayers[filter.BaseSatellite]}
}
