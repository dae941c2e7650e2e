package roster

import (
	"strings"

	"orbat_bot/internal/model"
)

// areaKeywords maps description keywords to areas. Order matters: every
// match overwrites the result, so the last matching entry wins.
//
// TODO: confirm with the unit staff that last-match-wins is intended;
// first-match (most specific first) may have been the original intent.
var areaKeywords = []struct {
	keyword string
	area    model.Area
}{
	{"operation", model.AreaOperation},
	{"core infantry", model.AreaInfantry},
	{"field leadership", model.AreaLeadership},
	{"medical", model.AreaMedical},
	{"anti-vehicle", model.AreaAT},
	{"marksmanship", model.AreaMarksman},
	{"communication", model.AreaComms},
	{"combat support", model.AreaSupport},
	{"mission support", model.AreaMission},
	{"cavalry", model.AreaCavalry},
	{"rotary aircrew", model.AreaHeli},
	{"fixed-wing aircrew", model.AreaPlane},
	{"intake", model.AreaSpecial},
}

// ClassifyArea derives an operation's area from its description text.
// Defaults to AreaOperation when no keyword matches.
func ClassifyArea(description string) model.Area {
	area := model.AreaOperation
	desc := strings.ToLower(description)
	for _, entry := range areaKeywords {
		if strings.Contains(desc, entry.keyword) {
			area = entry.area
		}
	}
	return area
}
