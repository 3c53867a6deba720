package render

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

var (
	plainStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	waterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)

	// ownerStyles follow the ownerColors table: red, blue, green, purple.
	ownerStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

// Glyph returns the single character a tile is drawn with in the terminal
// preview: armies over localities over terrain.
func Glyph(t world.Tile) string {
	switch {
	case t.Army != nil:
		return "@"
	case t.Locality != nil:
		switch t.Locality.Category {
		case world.Capital:
			return "C"
		case world.SatelliteCapital:
			return "S"
		case world.City:
			return "c"
		case world.PortCity:
			return "P"
		default:
			return "A"
		}
	case t.Terrain == world.Water:
		return "~"
	default:
		return "."
	}
}

func styleFor(t world.Tile) lipgloss.Style {
	owner := t.Owner
	if t.Army != nil {
		owner = &t.Army.Owner
	}
	if owner != nil && int(*owner) >= 0 && int(*owner) < len(ownerStyles) {
		return ownerStyles[*owner]
	}
	if t.Terrain == world.Water {
		return waterStyle
	}
	return plainStyle
}

// maxGap is the widest run of empty rows or columns the preview draws;
// wider gaps on sparse maps are collapsed to it.
const maxGap = 8

// Terminal renders the world as rows of pointy-top hexes, one row per r,
// each row shifted half a cell from the one above. Highlighted hexes that
// hold nothing are drawn as "*". Only occupied positions are visited, so
// the cost follows the tile count rather than the map's extent.
func Terminal(w *world.World, highlight []hex.Cube) string {
	tiles := w.Tiles()
	if len(tiles) == 0 {
		return ""
	}
	lit := make(map[hex.Cube]bool, len(highlight))
	for _, c := range highlight {
		lit[c] = true
	}

	// Doubled-width columns: col = 2q + r keeps neighbours two cells apart.
	type cell struct {
		col  int
		tile world.Tile
		lit  bool
	}
	rows := make(map[int][]cell)
	minCol := 2*tiles[0].Coord.Q + tiles[0].Coord.R
	for _, e := range tiles {
		c := e.Coord
		col := 2*c.Q + c.R
		minCol = min(minCol, col)
		rows[c.R] = append(rows[c.R], cell{col: col, tile: e.Tile, lit: lit[c]})
	}
	rs := slices.Sorted(maps.Keys(rows))

	var sb strings.Builder
	for i, r := range rs {
		if i > 0 {
			sb.WriteString(strings.Repeat("\n", gap(rs[i-1], r, maxGap+1)))
		}
		cells := rows[r]
		slices.SortFunc(cells, func(a, b cell) int { return cmp.Compare(a.col, b.col) })
		prev := minCol - 1
		for _, c := range cells {
			sb.WriteString(strings.Repeat(" ", gap(prev, c.col, maxGap+1)-1))
			prev = c.col
			if c.lit && c.tile.Army == nil && c.tile.Locality == nil {
				sb.WriteString(highlightStyle.Render("*"))
				continue
			}
			sb.WriteString(styleFor(c.tile).Render(Glyph(c.tile)))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

// gap returns to - from for from <= to, capped at limit. An overflowing
// difference counts as over the limit.
func gap(from, to, limit int) int {
	d := to - from
	if d < 0 || d > limit {
		return limit
	}
	return d
}
