package render

import (
	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/geo"
)

// StyleRule is one declarative paint directive for the map renderer. Rules
// are evaluated in order and the first matching rule paints a marker, so the
// flagged rule placed first dominates category colors.
type StyleRule struct {
	// MatchFlagged, when non-nil, restricts the rule to records with the
	// given flagged state.
	MatchFlagged *bool  `json:"match_flagged,omitempty"`
	// MatchCategory, when non-empty, restricts the rule to one category.
	MatchCategory string `json:"match_category,omitempty"`

	Radius int    `json:"radius"`
	Color  string `json:"color"`
	Stroke string `json:"stroke,omitempty"`
}

// Legend describes the on-map legend element shown while flagged records exist.
type Legend struct {
	Title    string `json:"title"`
	Count    int    `json:"count"`
	Position string `json:"position"`
	Color    string `json:"color"`
}

// MapRenderer is the spatial renderer collaborator. The drawing and
// projection engine behind it is out of scope; the adapter only hands it
// style rules and legend operations.
type MapRenderer interface {
	ApplyStyles(rules []StyleRule) error
	ShowLegend(legend Legend) error
	RemoveLegend() error
}

// MapAdapter recolors the flagged subset distinctly from unflagged markers
// and keeps the legend in step with the flagged count.
type MapAdapter struct {
	renderer MapRenderer
	settings *conf.Settings
}

// NewMapAdapter creates the map-paint adapter. renderer may be nil when the
// map surface has not been initialized yet; Apply then no-ops.
func NewMapAdapter(renderer MapRenderer, settings *conf.Settings) *MapAdapter {
	return &MapAdapter{renderer: renderer, settings: settings}
}

// Name implements Surface.
func (a *MapAdapter) Name() string { return "map" }

// Apply implements Surface. It derives the full rule set from the snapshot
// and replaces whatever the renderer held before, which makes redundant
// calls harmless.
func (a *MapAdapter) Apply(snapshot geo.Snapshot) error {
	if a.renderer == nil {
		return errMissingSurface(a.Name())
	}

	if err := a.renderer.ApplyStyles(a.BuildStyleRules(snapshot)); err != nil {
		return err
	}

	flagged := snapshot.FlaggedCount()
	if flagged > 0 {
		return a.renderer.ShowLegend(Legend{
			Title:    a.settings.Legend.Title,
			Count:    flagged,
			Position: a.settings.Legend.Position,
			Color:    a.settings.Style.FlaggedColor,
		})
	}
	return a.renderer.RemoveLegend()
}

// BuildStyleRules derives the declarative rule set for the snapshot: the
// flagged accent rule first, then one rule per category present, then the
// default fallback.
func (a *MapAdapter) BuildStyleRules(snapshot geo.Snapshot) []StyleRule {
	style := a.settings.Style

	flagged := true
	rules := []StyleRule{{
		MatchFlagged: &flagged,
		Radius:       style.FlaggedRadius,
		Color:        style.FlaggedColor,
		Stroke:       style.FlaggedStroke,
	}}

	for _, category := range snapshot.Categories() {
		rules = append(rules, StyleRule{
			MatchCategory: category,
			Radius:        style.DefaultRadius,
			Color:         categoryColor(category, style.DefaultColor),
		})
	}

	rules = append(rules, StyleRule{
		Radius: style.DefaultRadius,
		Color:  style.DefaultColor,
	})

	return rules
}

// categoryColor assigns a stable color to a category from a fixed palette.
func categoryColor(category, fallback string) string {
	if category == "" {
		return fallback
	}
	palette := []string{
		"#268bd2", "#2aa198", "#859900", "#b58900", "#cb4b16", "#6c71c4",
	}
	sum := 0
	for _, c := range category {
		sum += int(c)
	}
	return palette[sum%len(palette)]
}
