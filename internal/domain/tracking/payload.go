package tracking

import (
	"database/sql/driver"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Payload is a raw JSON document. Postgres stores it as jsonb; other dialects use text so scalar
// documents such as `98` keep their JSON spelling instead of gaining numeric affinity.
type Payload []byte

func (Payload) GormDataType() string { return "json" }

func (Payload) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return string(p), nil
}

// Scan accepts text and blobs, plus the numeric forms sqlite returns for rows written before the
// column had text affinity.
func (p *Payload) Scan(v interface{}) error {
	switch x := v.(type) {
	case nil:
		*p = nil
	case []byte:
		*p = append(Payload(nil), x...)
	case string:
		*p = Payload(x)
	case int64:
		*p = Payload(strconv.FormatInt(x, 10))
	case float64:
		*p = Payload(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		*p = Payload(strconv.FormatBool(x))
	default:
		return fmt.Errorf("tracking: cannot scan %T into Payload", v)
	}
	return nil
}
