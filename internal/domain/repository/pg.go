package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"kaab_hub/internal/platform/database"
)

// conn picks the transaction when one is in flight.
func conn(db *sql.DB, tx *sql.Tx) database.DBTX {
	if tx != nil {
		return tx
	}
	return db
}

// jsonColumn scans a json/jsonb column (or a json_agg result) into dst.
type jsonColumn struct {
	dst interface{}
}

func asJSON(dst interface{}) sql.Scanner {
	return jsonColumn{dst: dst}
}

func (c jsonColumn) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonColumn: unsupported source type %T", src)
	}
	return json.Unmarshal(data, c.dst)
}

func toJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// nonNil keeps empty lists serialised as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func likePattern(term string) string {
	return "%" + term + "%"
}
