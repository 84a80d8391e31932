package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/contractreg/contractreg/internal/store"
	"github.com/lib/pq"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// scanner is satisfied by both *sql.Row and *sql.Rows, the way the
// teacher's helpers.go shares scan logic between single- and multi-row
// reads.
type scanner interface {
	Scan(dest ...interface{}) error
}

// isUniqueViolation reports whether err is a postgres unique_violation
// (SQLSTATE 23505), translating it to the store's backend-neutral
// store.ErrDuplicate.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if ok := errorsAsPQ(err, &pqErr); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// errorsAsPQ walks err's Unwrap chain looking for a *pq.Error, the
// single-error subset of what errors.As does.
func errorsAsPQ(err error, target **pq.Error) bool {
	for err != nil {
		if pe, ok := err.(*pq.Error); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func translateWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return fmt.Errorf("postgres: %w", err)
}

func toJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case map[string]interface{}:
		if len(m) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

func fromJSON(b []byte, out interface{}) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}

// structToJSON / jsonToStruct move an audit payload between structpb.Struct
// and the JSONB column via protojson, matching how the rest of this
// repository treats structpb as the canonical opaque-record type
// (internal/domain/audit.go).
func structToJSON(s *structpb.Struct) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

func jsonToStruct(b []byte) (*structpb.Struct, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var s structpb.Struct
	if err := protojson.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &s, nil
}

// auditCursor encodes/decodes the (occurred_at, id) keyset cursor QueryAudit
// hands back to callers (spec §4.7).
func encodeAuditCursor(occurredAt time.Time, id string) string {
	return strconv.FormatInt(occurredAt.UnixNano(), 10) + ":" + id
}

func decodeAuditCursor(cursor string) (time.Time, string, error) {
	if cursor == "" {
		return time.Time{}, "", nil
	}
	parts := strings.SplitN(cursor, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("malformed audit cursor %q", cursor)
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed audit cursor %q: %w", cursor, err)
	}
	return time.Unix(0, nanos).UTC(), parts[1], nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
