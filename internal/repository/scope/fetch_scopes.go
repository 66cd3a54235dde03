package scope

import "gorm.io/gorm"

// LatestFirst orders fetch records newest first; a reference shared by two
// runs resolves to the most recent one.
func LatestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}
