package mysql

import (
	"database/sql"
	"encoding/json"
)

// nullable balikin NULL untuk string kosong (kolom bin_id/item_id/order_id)
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// jsonList encode item_ids ke kolom JSON; nil jadi NULL
func jsonList(ids []string) (any, error) {
	if ids == nil {
		return nil, nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func parseJSONList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw.String), &ids); err != nil {
		return nil
	}
	return ids
}
