package media

import (
	"strings"
)

// Composition selects how legacy zoom and offsets become CSS.
type Composition string

const (
	// ComposeScaleOnly lets object-position carry the offsets and emits a
	// bare scale(zoom) anchored at the same position.
	ComposeScaleOnly Composition = "scale-only"
	// ComposeTranslateScale emits translate(tx%, ty%) scale(zoom) around the
	// center. Offsets are not repeated in object-position.
	ComposeTranslateScale Composition = "translate-scale"
)

// ParseComposition maps a config value to a Composition, defaulting to scale-only.
func ParseComposition(value string) Composition {
	if Composition(strings.ToLower(strings.TrimSpace(value))) == ComposeTranslateScale {
		return ComposeTranslateScale
	}
	return ComposeScaleOnly
}

// Crop modes reported on the frame.
const (
	CropModeClipPath        = "clip-path"
	CropModeCustomTransform = "custom-transform"
	CropModeLegacyTransform = "legacy-transform"
)

var fitModes = map[string]struct{}{
	"cover":      {},
	"contain":    {},
	"fill":       {},
	"scale-down": {},
	"none":       {},
}

// DisplayParams are the computed presentation values for one image. Zero
// values mean the property is not set.
type DisplayParams struct {
	AspectRatio     float64 `json:"aspectRatio,omitempty"`
	ObjectFit       string  `json:"objectFit,omitempty"`
	ObjectPosition  string  `json:"objectPosition,omitempty"`
	ClipPath        string  `json:"clipPath,omitempty"`
	Transform       string  `json:"transform,omitempty"`
	TransformOrigin string  `json:"transformOrigin,omitempty"`
	WillChange      string  `json:"willChange,omitempty"`
	CropMode        string  `json:"cropMode,omitempty"`
}

// IsZero reports whether no display property was computed.
func (p DisplayParams) IsZero() bool {
	return p == DisplayParams{}
}

// FrameStyle renders the declarations applied to the image frame.
func (p DisplayParams) FrameStyle() string {
	if p.AspectRatio <= 0 {
		return ""
	}
	return "aspect-ratio: " + formatRatio(p.AspectRatio)
}

// ImageStyle renders the declarations applied to the img element in a
// fixed order.
func (p DisplayParams) ImageStyle() string {
	decls := make([]string, 0, 6)
	add := func(prop, value string) {
		if value != "" {
			decls = append(decls, prop+": "+value)
		}
	}
	add("object-fit", p.ObjectFit)
	add("object-position", p.ObjectPosition)
	add("clip-path", p.ClipPath)
	add("transform", p.Transform)
	add("transform-origin", p.TransformOrigin)
	add("will-change", p.WillChange)
	return strings.Join(decls, "; ")
}

type displayOptions struct {
	composition Composition
}

// DisplayOption tunes ApplyImageDisplay.
type DisplayOption func(*displayOptions)

// WithComposition selects the zoom/offset composition strategy.
func WithComposition(c Composition) DisplayOption {
	return func(o *displayOptions) {
		if c != "" {
			o.composition = c
		}
	}
}

// ApplyImageDisplay computes display params for an image reference. Each
// call starts from scratch. Non-object references and unusable descriptors
// yield zero params.
func ApplyImageDisplay(ref any, opts ...DisplayOption) DisplayParams {
	options := displayOptions{composition: ComposeScaleOnly}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	obj, ok := unwrap(ref).(map[string]any)
	if !ok || obj == nil {
		return DisplayParams{}
	}

	crop := cropSource(obj)
	if crop == nil {
		return DisplayParams{}
	}
	crop = NormalizeCrop(crop)

	params := DisplayParams{}
	if aspect, ok := ToPositiveNumber(crop["aspect"]); ok {
		params.AspectRatio = aspect
	}
	params.ObjectFit = resolveObjectFit(crop)
	params.ObjectPosition = resolveObjectPosition(crop, options.composition != ComposeTranslateScale)

	if clip, ok := crop["clipPath"].(string); ok && strings.TrimSpace(clip) != "" {
		params.ClipPath = clip
		params.CropMode = CropModeClipPath
	}

	if custom, origin, ok := customTransform(crop); ok {
		params.Transform = custom
		params.TransformOrigin = origin
		params.CropMode = CropModeCustomTransform
		return params
	}

	if value, origin, ok := legacyTransform(crop, options.composition, params.ObjectPosition); ok {
		params.Transform = value
		params.TransformOrigin = origin
		params.WillChange = "transform"
		params.CropMode = CropModeLegacyTransform
	}
	return params
}

// cropSource returns the crop descriptor, the display object, or a
// descriptor synthesized from legacy focus/align fields.
func cropSource(obj map[string]any) map[string]any {
	if crop, ok := obj["crop"].(map[string]any); ok && crop != nil {
		return crop
	}
	if display, ok := obj["display"].(map[string]any); ok && display != nil {
		return display
	}
	_, hasFocusX := obj["focusX"]
	_, hasFocusY := obj["focusY"]
	if (hasFocusX && obj["focusX"] != nil) || (hasFocusY && obj["focusY"] != nil) || truthy(obj["align"]) {
		return LegacyAlignToCrop(obj).Map()
	}
	return nil
}

// NormalizeCrop flattens css and display overrides into a copy of raw and
// fills canonical names from their aliases.
func NormalizeCrop(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for _, overlay := range []string{"css", "display"} {
		if extra, ok := raw[overlay].(map[string]any); ok {
			for k, v := range extra {
				out[k] = v
			}
		}
	}
	if out["mode"] == nil {
		if kind, ok := out["type"].(string); ok {
			out["mode"] = kind
		}
	}
	if !hasPosition(out["objectPosition"]) {
		for _, alias := range []string{"position", "focus"} {
			if value := out[alias]; hasPosition(value) {
				out["objectPosition"] = value
				break
			}
		}
	}
	return out
}

// hasPosition reports whether value can supply an object position. Blank
// strings count as absent.
func hasPosition(value any) bool {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return truthy(value)
}

func resolveObjectFit(crop map[string]any) string {
	if fit, ok := crop["objectFit"].(string); ok && fit != "" {
		return fit
	}
	if fit, ok := crop["fit"].(string); ok && fit != "" {
		return fit
	}
	if mode, ok := crop["mode"].(string); ok {
		candidate := strings.ToLower(strings.TrimSpace(mode))
		if _, known := fitModes[candidate]; known {
			return candidate
		}
	}
	return ""
}

func resolveObjectPosition(crop map[string]any, includeOffsets bool) string {
	if pos, ok := crop["objectPosition"].(string); ok && strings.TrimSpace(pos) != "" {
		return strings.TrimSpace(pos)
	}

	var x, y any
	if source, ok := crop["objectPosition"].(map[string]any); ok {
		x = firstPresent(source, "x", "cx", "left", "right")
		y = firstPresent(source, "y", "cy", "top", "bottom")
	}
	if includeOffsets {
		if x == nil {
			x = crop["offsetX"]
		}
		if y == nil {
			y = crop["offsetY"]
		}
	}

	nx, okX := ToClamped01(x)
	ny, okY := ToClamped01(y)
	switch {
	case okX && okY:
		return FormatPercent(nx) + " " + FormatPercent(ny)
	case okX:
		return FormatPercent(nx) + " center"
	case okY:
		return "center " + FormatPercent(ny)
	}
	return ""
}

func firstPresent(source map[string]any, keys ...string) any {
	for _, key := range keys {
		if value := source[key]; value != nil {
			return value
		}
	}
	return nil
}

func customTransform(crop map[string]any) (string, string, bool) {
	origin := firstString(crop, "transformOrigin", "origin")
	switch typed := crop["transform"].(type) {
	case string:
		if value := strings.TrimSpace(typed); value != "" {
			return value, origin, true
		}
	case map[string]any:
		value := strings.TrimSpace(firstString(typed, "value", "css"))
		if value != "" {
			if o := firstString(typed, "origin"); o != "" {
				origin = o
			}
			return value, origin, true
		}
	}
	return "", "", false
}

func firstString(source map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := source[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// legacyTransform turns zoom and offsets into a CSS transform. Zoom is
// floored at 1 and offsets default to the center. The identity case emits
// nothing.
func legacyTransform(crop map[string]any, composition Composition, position string) (string, string, bool) {
	zoom := PositiveOr(crop["zoom"], 1)
	if zoom < 1 {
		zoom = 1
	}
	offsetX := Clamped01Or(crop["offsetX"], 0.5)
	offsetY := Clamped01Or(crop["offsetY"], 0.5)

	if composition == ComposeTranslateScale {
		if zoom == 1 && offsetX == 0.5 && offsetY == 0.5 {
			return "", "", false
		}
		inv := 1 / zoom
		tx := (0.5 - offsetX) * inv * 100
		ty := (0.5 - offsetY) * inv * 100
		value := "translate(" + FormatNumber(tx) + "%, " + FormatNumber(ty) + "%) scale(" + formatRatio(zoom) + ")"
		return value, "center center", true
	}

	if zoom == 1 {
		return "", "", false
	}
	origin := position
	if origin == "" {
		origin = "center center"
	}
	return "scale(" + formatRatio(zoom) + ")", origin, true
}
