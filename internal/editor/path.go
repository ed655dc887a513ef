package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidPath  = errors.New("editor: invalid path")
	ErrPathConflict = errors.New("editor: path crosses a scalar value")
)

// MaxPathIndex is the largest list index a path may address. Writes past the
// end of a list pad it with nulls, so the bound also caps that growth.
const MaxPathIndex = 10000

// Path locates a value inside a document. Segments are either string keys
// or int indexes.
type Path []any

// ParsePath accepts dotted paths (pages.0.hero.title, pages[0].hero.title)
// and JSON pointers (/pages/0/hero/title).
func ParsePath(raw string) (Path, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	var parts []string
	if strings.HasPrefix(trimmed, "/") {
		for _, part := range strings.Split(trimmed[1:], "/") {
			part = strings.ReplaceAll(part, "~1", "/")
			parts = append(parts, strings.ReplaceAll(part, "~0", "~"))
		}
	} else {
		replaced := strings.NewReplacer("[", ".", "]", "").Replace(trimmed)
		parts = strings.Split(replaced, ".")
	}
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, raw)
		}
		if idx, err := strconv.Atoi(part); err == nil && idx >= 0 {
			if idx > MaxPathIndex {
				return nil, fmt.Errorf("%w: index %d exceeds %d", ErrInvalidPath, idx, MaxPathIndex)
			}
			path = append(path, idx)
			continue
		}
		path = append(path, part)
	}
	return path, nil
}

// PathFrom converts a JSON decoded segment list into a Path. Whole numbers
// become indexes.
func PathFrom(values []any) (Path, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	path := make(Path, 0, len(values))
	for _, value := range values {
		segment, err := segmentOf(value)
		if err != nil {
			return nil, err
		}
		path = append(path, segment)
	}
	return path, nil
}

func segmentOf(value any) (any, error) {
	switch typed := value.(type) {
	case string:
		if typed == "" {
			return nil, fmt.Errorf("%w: empty segment", ErrInvalidPath)
		}
		return typed, nil
	case int:
		if typed < 0 {
			return nil, fmt.Errorf("%w: negative index %d", ErrInvalidPath, typed)
		}
		if typed > MaxPathIndex {
			return nil, fmt.Errorf("%w: index %d exceeds %d", ErrInvalidPath, typed, MaxPathIndex)
		}
		return typed, nil
	case int64:
		if typed > MaxPathIndex {
			return nil, fmt.Errorf("%w: index %d exceeds %d", ErrInvalidPath, typed, MaxPathIndex)
		}
		return segmentOf(int(typed))
	case float64:
		if typed != math.Trunc(typed) || math.IsInf(typed, 0) {
			return nil, fmt.Errorf("%w: index %v is not an integer", ErrInvalidPath, typed)
		}
		if typed > MaxPathIndex {
			return nil, fmt.Errorf("%w: index %v exceeds %d", ErrInvalidPath, typed, MaxPathIndex)
		}
		return segmentOf(int(typed))
	case json.Number:
		idx, err := typed.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: index %s is not an integer", ErrInvalidPath, typed)
		}
		return segmentOf(idx)
	default:
		return nil, fmt.Errorf("%w: unsupported segment %T", ErrInvalidPath, value)
	}
}

// String renders the path in dotted form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, segment := range p {
		parts[i] = fmt.Sprint(segment)
	}
	return strings.Join(parts, ".")
}

// Pointer renders the path as a JSON pointer.
func (p Path) Pointer() string {
	var b strings.Builder
	for _, segment := range p {
		b.WriteByte('/')
		part := fmt.Sprint(segment)
		part = strings.ReplaceAll(part, "~", "~0")
		b.WriteString(strings.ReplaceAll(part, "/", "~1"))
	}
	return b.String()
}

// Append returns a new path with segments added.
func (p Path) Append(segments ...any) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// SetValueByPath writes value at path, creating missing containers on the
// way: a map when the next segment is a key, a slice when it is an index.
// The possibly reallocated root is returned. On error root is left as it was.
func SetValueByPath(root any, path Path, value any) (any, error) {
	if len(path) == 0 {
		return root, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, segment := range path {
		if _, err := segmentOf(segment); err != nil {
			return root, err
		}
	}
	return setIn(root, path, value)
}

func setIn(container any, path Path, value any) (any, error) {
	key := path[0]
	if len(path) == 1 {
		return assign(container, key, value)
	}
	child, _ := lookup(container, key)
	if child == nil {
		child = emptyContainerFor(path[1])
	}
	updated, err := setIn(child, path[1:], value)
	if err != nil {
		return container, err
	}
	return assign(container, key, updated)
}

func emptyContainerFor(next any) any {
	if _, ok := next.(int); ok {
		return []any{}
	}
	return map[string]any{}
}

func assign(container any, key any, value any) (any, error) {
	if container == nil {
		container = emptyContainerFor(key)
	}
	switch typed := container.(type) {
	case map[string]any:
		typed[keyString(key)] = value
		return typed, nil
	case []any:
		idx, ok := indexOf(key)
		if !ok {
			return container, fmt.Errorf("%w: key %q on a list", ErrPathConflict, key)
		}
		if idx > MaxPathIndex {
			return container, fmt.Errorf("%w: index %d exceeds %d", ErrInvalidPath, idx, MaxPathIndex)
		}
		for len(typed) <= idx {
			typed = append(typed, nil)
		}
		typed[idx] = value
		return typed, nil
	default:
		return container, fmt.Errorf("%w: cannot set %v on %T", ErrPathConflict, key, container)
	}
}

// GetValueByPath reads the value at path.
func GetValueByPath(root any, path Path) (any, bool) {
	current := root
	for _, segment := range path {
		next, ok := lookup(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func lookup(container any, key any) (any, bool) {
	switch typed := container.(type) {
	case map[string]any:
		value, ok := typed[keyString(key)]
		return value, ok
	case []any:
		idx, ok := indexOf(key)
		if !ok || idx >= len(typed) {
			return nil, false
		}
		return typed[idx], true
	default:
		return nil, false
	}
}

func keyString(key any) string {
	if idx, ok := key.(int); ok {
		return strconv.Itoa(idx)
	}
	return fmt.Sprint(key)
}

func indexOf(key any) (int, bool) {
	switch typed := key.(type) {
	case int:
		return typed, typed >= 0
	case string:
		idx, err := strconv.Atoi(typed)
		if err != nil || idx < 0 {
			return 0, false
		}
		return idx, true
	default:
		return 0, false
	}
}
