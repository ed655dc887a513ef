package media

import (
	"bytes"
	"encoding/json"
)

// ImageRef is either a bare URL or an image object carrying variants and
// crop data. The zero value is an empty reference.
type ImageRef struct {
	url    string
	object map[string]any
}

// URLRef builds a string reference.
func URLRef(url string) ImageRef {
	return ImageRef{url: url}
}

// ObjectRef builds an object reference. The map is used as-is.
func ObjectRef(object map[string]any) ImageRef {
	return ImageRef{object: object}
}

// RefFrom wraps a decoded JSON value. Values that are neither strings nor
// objects produce an empty reference.
func RefFrom(value any) ImageRef {
	switch typed := unwrap(value).(type) {
	case string:
		return URLRef(typed)
	case map[string]any:
		return ObjectRef(typed)
	}
	return ImageRef{}
}

// IsZero reports whether the reference holds nothing.
func (r ImageRef) IsZero() bool {
	return r.url == "" && r.object == nil
}

// IsObject reports whether the reference is an image object.
func (r ImageRef) IsObject() bool {
	return r.object != nil
}

// Value returns the JSON-generic form: string, map or nil.
func (r ImageRef) Value() any {
	if r.object != nil {
		return r.object
	}
	if r.url != "" {
		return r.url
	}
	return nil
}

func (r ImageRef) MarshalJSON() ([]byte, error) {
	if r.object != nil {
		return json.Marshal(r.object)
	}
	return json.Marshal(r.url)
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = ImageRef{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*r = URLRef(s)
		return nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		*r = ObjectRef(obj)
		return nil
	}
	// numbers, booleans and arrays carry no usable URL
	*r = ImageRef{}
	return nil
}

// Image is the canonical form of a resolved reference.
type Image struct {
	Src     string        `json:"src"`
	Thumb   string        `json:"thumb,omitempty"`
	Full    string        `json:"full,omitempty"`
	Title   string        `json:"title,omitempty"`
	Display DisplayParams `json:"display,omitempty"`
}

// Empty reports whether no URL could be resolved.
func (img Image) Empty() bool {
	return img.Src == "" && img.Thumb == ""
}

// URL returns the thumbnail when preferThumb is set and one exists.
func (img Image) URL(preferThumb bool) string {
	if preferThumb && img.Thumb != "" {
		return img.Thumb
	}
	if img.Src != "" {
		return img.Src
	}
	return img.Thumb
}

// Normalize resolves every variant once so downstream code never repeats
// the search.
func (r ImageRef) Normalize(opts ...DisplayOption) Image {
	value := r.Value()
	img := Image{
		Src:     ResolveImageSrc(value, false),
		Full:    ResolveFullImageSrc(value),
		Display: ApplyImageDisplay(value, opts...),
	}
	if thumb := ResolveImageSrc(value, true); thumb != img.Src {
		img.Thumb = thumb
	}
	if r.object != nil {
		img.Title = firstString(r.object, "title", "caption")
	}
	return img
}

// NormalizeImage is shorthand for RefFrom(value).Normalize(opts...).
func NormalizeImage(value any, opts ...DisplayOption) Image {
	return RefFrom(value).Normalize(opts...)
}
