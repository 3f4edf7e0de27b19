package classify

// FallbackColor is used for every class without a palette entry.
const FallbackColor = "#9e9e9e"

var palette = map[string]string{
	"Wall":                 "#d9d4c7",
	"WallStandardCase":     "#d9d4c7",
	"CurtainWall":          "#8fb8de",
	"Door":                 "#a0522d",
	"Window":               "#87ceeb",
	"Slab":                 "#b0b0b0",
	"Roof":                 "#8b4513",
	"Column":               "#708090",
	"Beam":                 "#5f6b7a",
	"Stair":                "#c2a878",
	"StairFlight":          "#c2a878",
	"Railing":              "#4f4f4f",
	"Member":               "#6b8e23",
	"Plate":                "#9aa5b1",
	"Covering":             "#e0c9a6",
	"FurnishingElement":    "#deb887",
	"Furniture":            "#deb887",
	"Space":                "#4fc3f7",
	"OpeningElement":       "#ffcc80",
	"BuildingElementProxy": "#bdbdbd",
}

// ColorFor returns the display color of a class name.
func ColorFor(name string) string {
	if c, ok := palette[name]; ok {
		return c
	}
	return FallbackColor
}
