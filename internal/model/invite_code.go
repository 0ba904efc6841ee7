package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// InviteCode is one entry of a subscription's invite ledger.
// UsedBy and UsedAt are set together, exactly once.
type InviteCode struct {
	Code      string     `json:"code" bson:"code"`
	UsedBy    *string    `json:"usedBy" bson:"usedBy"`
	UsedAt    *time.Time `json:"usedAt" bson:"usedAt"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

func (c InviteCode) IsUsed() bool { return c.UsedBy != nil }

// InviteCodes is the ordered ledger, stored as a JSON column.
type InviteCodes []InviteCode

// Find returns the index of code in the ledger, or -1.
func (l InviteCodes) Find(code string) int {
	for i := range l {
		if l[i].Code == code {
			return i
		}
	}
	return -1
}

func (l InviteCodes) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(InviteCodes{})
	}
	return json.Marshal(l)
}

func (l *InviteCodes) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("InviteCodes.Scan: unsupported column type")
	}
}
