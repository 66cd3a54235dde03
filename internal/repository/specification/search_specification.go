package specification

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// RecordSearchQuery matches fetch records whose summary or reference
// contains the query literally, case-insensitively. An empty query matches
// all.
type RecordSearchQuery struct {
	Query string
}

func (s RecordSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	q := strings.TrimSpace(s.Query)
	if q == "" {
		return db
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	// LOWER keeps this portable; ILIKE is postgres only.
	return db.Where(`LOWER(summary) LIKE ? ESCAPE '\' OR LOWER(reference) LIKE ? ESCAPE '\'`, pattern, pattern)
}
