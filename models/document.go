package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Embedded child records (menu items, order lines) are persisted as a JSON
// document inside their parent's row. These helpers back the Valuer/Scanner
// implementations of those column types.

func documentValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanDocument(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported document column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func documentDBType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "JSON"
	default:
		return "TEXT"
	}
}

// Menu is the ordered list of items embedded in a restaurant.
type Menu []MenuItem

func (m Menu) Value() (driver.Value, error) {
	if m == nil {
		m = Menu{}
	}
	return documentValue(m)
}

func (m *Menu) Scan(src interface{}) error {
	return scanDocument(src, m)
}

func (Menu) GormDataType() string { return "json" }

func (Menu) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return documentDBType(db)
}

// OrderLines is the list of (item, quantity) entries embedded in an order.
type OrderLines []OrderLine

func (l OrderLines) Value() (driver.Value, error) {
	if l == nil {
		l = OrderLines{}
	}
	return documentValue(l)
}

func (l *OrderLines) Scan(src interface{}) error {
	return scanDocument(src, l)
}

func (OrderLines) GormDataType() string { return "json" }

func (OrderLines) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return documentDBType(db)
}
