package media

import (
	"reflect"
)

var (
	thumbKeys   = []string{"thumb", "thumbnail", "preview", "small"}
	primaryKeys = []string{"src", "image", "url", "path"}
	fullKeys    = []string{"full", "original", "raw", "large", "hd", "source"}

	// nestedKeys hold further image descriptors and are searched with the
	// same key list once the direct keys come up empty.
	nestedKeys = []string{"variants", "sources", "images", "files", "sizes", "crop"}

	// valueKeys are read from an object sitting directly under a variant key,
	// e.g. {"thumb": {"url": "/a.jpg"}}.
	valueKeys = []string{"src", "url", "href", "path", "value", "data"}
)

// ResolveImageSrc picks the best URL in input. Strings are returned as-is.
// Objects are searched for thumbnail keys first when preferThumb is set, then
// primary keys, then full size keys, and finally thumbnail keys as a last
// resort. It never fails: an empty string means no usable URL.
func ResolveImageSrc(input any, preferThumb bool) string {
	input = unwrap(input)
	if !truthy(input) {
		return ""
	}
	if s, ok := input.(string); ok {
		return s
	}
	if preferThumb {
		if found := resolveVariant(input, thumbKeys); found != "" {
			return found
		}
	}
	if found := resolveVariant(input, primaryKeys); found != "" {
		return found
	}
	if found := resolveVariant(input, fullKeys); found != "" {
		return found
	}
	if !preferThumb {
		return resolveVariant(input, thumbKeys)
	}
	return ""
}

// ResolveFullImageSrc returns the full size URL of input, falling back to
// the primary URL.
func ResolveFullImageSrc(input any) string {
	input = unwrap(input)
	if !truthy(input) {
		return ""
	}
	if s, ok := input.(string); ok {
		return s
	}
	if found := resolveVariant(input, fullKeys); found != "" {
		return found
	}
	return resolveVariant(input, primaryKeys)
}

func resolveVariant(input any, keys []string) string {
	return newResolver().from(input, keys)
}

// resolver carries the visited set for one search pass. Containers are
// keyed by identity so self-referencing documents terminate.
type resolver struct {
	visited map[containerKey]struct{}
}

type containerKey struct {
	ptr    uintptr
	length int
	kind   reflect.Kind
}

func newResolver() *resolver {
	return &resolver{visited: map[containerKey]struct{}{}}
}

func (r *resolver) enter(container any) bool {
	key, ok := identity(container)
	if !ok {
		return true
	}
	if _, seen := r.visited[key]; seen {
		return false
	}
	r.visited[key] = struct{}{}
	return true
}

func (r *resolver) from(input any, keys []string) string {
	input = unwrap(input)
	if !truthy(input) {
		return ""
	}
	switch typed := input.(type) {
	case string:
		return typed
	case []any:
		if !r.enter(typed) {
			return ""
		}
		for _, item := range typed {
			if found := r.from(item, keys); found != "" {
				return found
			}
		}
		return ""
	case map[string]any:
		if !r.enter(typed) {
			return ""
		}
		for _, key := range keys {
			value, ok := typed[key]
			if !ok {
				continue
			}
			if found := r.value(value); found != "" {
				return found
			}
		}
		for _, key := range nestedKeys {
			nested, ok := typed[key]
			if !ok {
				continue
			}
			if found := r.from(nested, keys); found != "" {
				return found
			}
		}
	}
	return ""
}

// value reads a URL stored directly under a variant key.
func (r *resolver) value(value any) string {
	value = unwrap(value)
	if !truthy(value) {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return typed
	case []any:
		if !r.enter(typed) {
			return ""
		}
		for _, item := range typed {
			if found := r.value(item); found != "" {
				return found
			}
		}
	case map[string]any:
		for _, key := range valueKeys {
			if s, ok := typed[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// unwrap converts typed containers into their JSON-generic form.
func unwrap(value any) any {
	switch typed := value.(type) {
	case ImageRef:
		return typed.Value()
	case *ImageRef:
		if typed == nil {
			return nil
		}
		return typed.Value()
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(typed))
		for k, s := range typed {
			out[k] = s
		}
		return out
	}
	return value
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case string:
		return typed != ""
	case bool:
		return typed
	case map[string]any:
		return typed != nil
	case []any:
		return typed != nil
	}
	if num, ok := toNumber(value); ok {
		return num != 0
	}
	return true
}

func identity(container any) (containerKey, bool) {
	v := reflect.ValueOf(container)
	switch v.Kind() {
	case reflect.Map:
		return containerKey{ptr: uintptr(v.UnsafePointer()), kind: reflect.Map}, true
	case reflect.Slice:
		return containerKey{ptr: uintptr(v.UnsafePointer()), length: v.Len(), kind: reflect.Slice}, true
	}
	return containerKey{}, false
}
