package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"orbat_bot/internal/model"
)

// listingRowClass marks operation rows on the listing page.
const listingRowClass = "campaign-row"

// reservistSlotName marks overflow slots that are never announced.
const reservistSlotName = "Reservist"

// ParseListing extracts operations from the raw listing page. Rows without
// a recognizable operation link are dropped; missing or malformed embedded
// timestamps yield nil instants, never an error.
func ParseListing(page string) ([]model.Operation, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	var ops []model.Operation
	doc.Find("." + listingRowClass).Each(func(_ int, row *goquery.Selection) {
		href, ok := row.Find("a").First().Attr("href")
		if !ok {
			return
		}
		rest, ok := strings.CutPrefix(href, "/operations/auth/")
		if !ok {
			return
		}
		id := strings.TrimSuffix(rest, "/orbat")
		if id == "" {
			return
		}

		heading := row.Children().Eq(1).Children().First().Children().First().Children().First()
		name := headingOwnText(heading)
		description := strings.TrimSpace(heading.Children().First().Text())

		start := instantAfter(page, "utcTime"+id, 4)
		var release *time.Time
		// The release countdown script only exists for operations whose
		// roster is not yet released.
		if strings.Contains(page, id+"_orbat_count") {
			release = instantAfter(page, "date_"+id+" = new Date(Date.parse(", 1)
		}

		ops = append(ops, model.Operation{
			ID:          id,
			Name:        name,
			Description: description,
			Area:        ClassifyArea(description),
			Release:     release,
			Start:       start,
		})
	})

	return ops, nil
}

// headingOwnText returns the heading's text up to its first child element,
// which is where the operation name ends and the description span begins.
func headingOwnText(heading *goquery.Selection) string {
	var b strings.Builder
	heading.Contents().EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if goquery.NodeName(node) != "#text" {
			return false
		}
		b.WriteString(node.Text())
		return true
	})
	return strings.TrimSpace(b.String())
}

// instantAfter reads the fixed-width timestamp embedded in the page skip
// bytes after the marker. Absent markers, truncated pages and garbage all
// yield nil.
func instantAfter(page, marker string, skip int) *time.Time {
	i := strings.Index(page, marker)
	if i < 0 {
		return nil
	}
	start := i + len(marker) + skip
	end := start + len("2006-01-02 15:04:05")
	if end > len(page) {
		return nil
	}
	raw := strings.Replace(page[start:end], " ", "T", 1) + "Z"
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// ParseOrbat extracts the grouped slot roster from a raw orbat page.
// A row whose first cell is a header cell opens a new group; a row whose
// first cell carries a toggle marker is a slot row. Groups that end up
// with no retained slots are dropped.
func ParseOrbat(page string) ([]*model.Group, []*model.Slot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, nil, fmt.Errorf("parse orbat html: %w", err)
	}

	var ordered []*model.Group
	groups := make(map[string]*model.Group)
	var current *model.Group
	var slots []*model.Slot

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children()
		if cells.Length() == 0 {
			return
		}
		first := cells.Eq(0)

		if goquery.NodeName(first) == "th" {
			name := first.Children().First().Children().First().Text()
			name = strings.TrimSpace(strings.ReplaceAll(name, `"`, ""))
			g, ok := groups[name]
			if !ok {
				g = &model.Group{Name: name}
				groups[name] = g
				ordered = append(ordered, g)
			}
			current = g
			return
		}

		if _, ok := first.Attr("data-toggle"); !ok {
			return
		}
		if current == nil {
			// Slot row before any group header; nothing to attach it to.
			return
		}

		name := strings.TrimSpace(cells.Eq(1).Children().First().Text())
		if name == "" {
			name = strings.TrimSpace(cells.Eq(1).Text())
		}
		if name == "" || name == reservistSlotName {
			return
		}
		// Strip the trailing annotation block separated by a wide gap.
		if i := strings.Index(name, "   "); i >= 0 {
			name = name[:i]
		}

		var occupant *string
		if cell := cells.Eq(3).Children().First(); cell.Length() > 0 {
			v := strings.TrimSpace(cell.Text())
			occupant = &v
		}

		ordinal := 0
		for _, s := range current.Slots {
			if s.Name == name {
				ordinal++
			}
		}

		slot := &model.Slot{
			ID:       fmt.Sprintf("%s-%s-%d", current.Name, name, ordinal),
			Name:     name,
			Occupant: occupant,
			Group:    current,
		}
		current.Slots = append(current.Slots, slot)
		slots = append(slots, slot)
	})

	var kept []*model.Group
	for _, g := range ordered {
		if len(g.Slots) > 0 {
			kept = append(kept, g)
		}
	}
	return kept, slots, nil
}
