package classify

import (
	"regexp"
	"strings"

	"github.com/Faultbox/bimview/internal/engine/fragments"
)

// Extractor derives a class name from element metadata. ok is false when the
// extractor has nothing to say about the element.
type Extractor func(meta fragments.ElementMeta) (name string, ok bool)

// DefaultExtractors is the fallback chain used by New: explicit tag, name
// pattern, identifier pattern, then the numeric type table.
var DefaultExtractors = []Extractor{
	FromClassTag,
	FromName,
	FromGlobalID,
	FromTypeCode,
}

// Resolve runs extractors in order and returns the first match, or
// UnclassifiedClass if none matches.
func Resolve(meta fragments.ElementMeta, extractors []Extractor) string {
	for _, ex := range extractors {
		if name, ok := ex(meta); ok && name != "" {
			return name
		}
	}
	return UnclassifiedClass
}

var classPattern = regexp.MustCompile(`(?i)\bifc([a-z]+)`)

// FromClassTag uses the element's explicit class tag.
func FromClassTag(meta fragments.ElementMeta) (string, bool) {
	tag := strings.TrimSpace(meta.ClassTag)
	if tag == "" {
		return "", false
	}
	return Canonical(tag), true
}

// FromName looks for an "Ifc<Class>" token in the display name.
func FromName(meta fragments.ElementMeta) (string, bool) {
	return matchPattern(meta.Name)
}

// FromGlobalID looks for an "Ifc<Class>" token in the identifier.
func FromGlobalID(meta fragments.ElementMeta) (string, bool) {
	return matchPattern(meta.GlobalID)
}

// FromTypeCode maps well-known numeric entity types.
func FromTypeCode(meta fragments.ElementMeta) (string, bool) {
	if meta.TypeCode == 0 {
		return "", false
	}
	name, ok := typeCodes[meta.TypeCode]
	return name, ok
}

func matchPattern(s string) (string, bool) {
	m := classPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return Canonical(m[1]), true
}

// Canonical turns a raw class token such as "IFCWALLSTANDARDCASE",
// "IfcDoor" or "wall" into its display name ("WallStandardCase", "Door", "Wall").
func Canonical(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) > 3 && strings.EqualFold(s[:3], "ifc") {
		s = s[3:]
	}
	if s == "" {
		return UnclassifiedClass
	}
	if known, ok := canonicalNames[strings.ToUpper(s)]; ok {
		return known
	}
	if s == strings.ToUpper(s) || s == strings.ToLower(s) {
		s = strings.ToLower(s)
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var canonicalNames = func() map[string]string {
	names := []string{
		"Wall", "WallStandardCase", "CurtainWall", "Door", "Window", "Slab", "Roof",
		"Column", "Beam", "Stair", "StairFlight", "Railing", "Ramp", "Member", "Plate",
		"Covering", "FurnishingElement", "Furniture", "Space", "OpeningElement",
		"BuildingElementProxy", "Footing", "Site", "Building", "BuildingStorey",
		"FlowTerminal", "FlowSegment", "FlowFitting",
	}
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[strings.ToUpper(n)] = n
	}
	return m
}()

// typeCodes holds the numeric entity types of the common building classes.
var typeCodes = map[uint32]string{
	2391406946: "Wall",
	3512223829: "WallStandardCase",
	395920057:  "Door",
	3304561284: "Window",
	1529196076: "Slab",
	2016517767: "Roof",
	843113511:  "Column",
	753842376:  "Beam",
	331165859:  "Stair",
	4252922144: "StairFlight",
	2262370178: "Railing",
	1073191201: "Member",
	3171933400: "Plate",
	1973544240: "Covering",
	263784265:  "FurnishingElement",
	3856911033: "Space",
	3588315303: "OpeningElement",
	1095909175: "BuildingElementProxy",
	900683007:  "Footing",
}
