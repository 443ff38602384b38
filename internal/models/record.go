package models

// FamilyRecord is the stored form of a Family. Unlike the API form it
// carries the password hash.
type FamilyRecord struct {
	*Family
	PasswordHash string `json:"passwordHash"`
}

// NewFamilyRecord wraps f for storage or export
func NewFamilyRecord(f *Family) FamilyRecord {
	return FamilyRecord{Family: f, PasswordHash: f.PasswordHash}
}

// ToFamily returns the wrapped family with its hash restored
func (r FamilyRecord) ToFamily() *Family {
	if r.Family == nil {
		return nil
	}
	r.Family.PasswordHash = r.PasswordHash
	return r.Family
}
