package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ImageList is a text[] on PostgreSQL and a JSON text column elsewhere.
type ImageList []string

func (ImageList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	return pq.StringArray(l).Value()
}

func (l *ImageList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("image list: unsupported source %T", src)
	}

	if len(raw) > 0 && raw[0] == '[' {
		var out []string
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		*l = out
		return nil
	}

	var arr pq.StringArray
	if err := arr.Scan(raw); err != nil {
		return err
	}
	*l = ImageList(arr)
	return nil
}

func (l ImageList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}
