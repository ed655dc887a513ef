package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ShortID returns the first n hex characters of the key's UUID.
func ShortID(key string, n int) string {
	uid := UUID(key)
	if uid == uuid.Nil {
		return ""
	}
	hex := strings.ReplaceAll(uid.String(), "-", "")
	if n <= 0 || n > len(hex) {
		return hex
	}
	return hex[:n]
}

func PageID(source []byte) string {
	return "page-" + ShortID("microsite:page:"+string(source), 8)
}

func SectionID(pageID, sectionType string, index int) string {
	key := "microsite:section:" + strings.TrimSpace(pageID) + ":" + strings.ToLower(strings.TrimSpace(sectionType)) + ":" + strconv.Itoa(index)
	return strings.ToLower(strings.TrimSpace(sectionType)) + "-" + ShortID(key, 8)
}

func RevisionUUID(documentKey string, version int64) uuid.UUID {
	return UUID("microsite:revision:" + strings.TrimSpace(documentKey) + ":" + strconv.FormatInt(version, 10))
}
