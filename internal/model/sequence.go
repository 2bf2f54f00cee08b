package model

// Sequence is a named monotonic counter backed by a single row, bumped
// with an atomic upsert. It replaces count-then-format numbering so two
// concurrent issuers can never receive the same value.
type Sequence struct {
	Name  string `gorm:"type:varchar(50);primaryKey" json:"name"`
	Value int64  `gorm:"not null;default:0" json:"value"`
}
