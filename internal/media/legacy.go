package media

import "strings"

// LegacyCrop is the crop synthesized from old focus/align fields.
type LegacyCrop struct {
	Zoom    float64 `json:"zoom"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Map returns the crop as a descriptor map.
func (c LegacyCrop) Map() map[string]any {
	return map[string]any{
		"zoom":    c.Zoom,
		"offsetX": c.OffsetX,
		"offsetY": c.OffsetY,
	}
}

var (
	alignX = map[string]float64{"left": 0, "center": 0.5, "right": 1}
	alignY = map[string]float64{"top": 0, "center": 0.5, "bottom": 1}
)

// LegacyAlignToCrop converts focusX/focusY percentages or a hyphenated
// align token ("bottom-left") into offsets. Missing axes stay centered.
func LegacyAlignToCrop(data map[string]any) LegacyCrop {
	crop := LegacyCrop{Zoom: 1, OffsetX: 0.5, OffsetY: 0.5}
	if data == nil {
		return crop
	}

	if fx, ok := numeric(data["focusX"]); ok {
		crop.OffsetX = clamp01(fx / 100)
	} else if align, ok := data["align"].(string); ok && align != "" {
		parts := strings.Split(strings.ToLower(strings.TrimSpace(align)), "-")
		first := parts[0]
		second := ""
		if len(parts) > 1 {
			second = parts[1]
		}
		crop.OffsetX = lookupAlign(alignX, second, first)
		crop.OffsetY = lookupAlign(alignY, first, second)
	}

	if fy, ok := numeric(data["focusY"]); ok {
		crop.OffsetY = clamp01(fy / 100)
	}
	return crop
}

func lookupAlign(table map[string]float64, tokens ...string) float64 {
	for _, token := range tokens {
		if value, ok := table[token]; ok {
			return value
		}
	}
	return 0.5
}

// numeric accepts only real numbers, not numeric strings.
func numeric(value any) (float64, bool) {
	if _, isString := value.(string); isString {
		return 0, false
	}
	return toNumber(value)
}
