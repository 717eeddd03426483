package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"gotrabandhus/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals v to a nullable JSON string.
// Nil values and empty maps or id lists are stored as NULL.
func marshalToNull(v interface{}) (sql.NullString, error) {
	switch t := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case domain.Attributes:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Person Row Scanner
// ============================================================================
//
// Column order must match between personColumns, scanArgs() and
// personInsertArgs().

// personColumns is the column list for person queries
const personColumns = `tree_id, id, position, data, father, mother, spouses, children`

// personRow holds all columns from a person query for scanning
type personRow struct {
	TreeID       string
	ID           string
	Position     int
	DataJSON     sql.NullString
	Father       sql.NullString
	Mother       sql.NullString
	SpousesJSON  sql.NullString
	ChildrenJSON sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
func (r *personRow) scanArgs() []interface{} {
	return []interface{}{
		&r.TreeID,       // 1
		&r.ID,           // 2
		&r.Position,     // 3
		&r.DataJSON,     // 4
		&r.Father,       // 5
		&r.Mother,       // 6
		&r.SpousesJSON,  // 7
		&r.ChildrenJSON, // 8
	}
}

// toDomain converts the scanned row to a domain.PersonNode
func (r *personRow) toDomain() (*domain.PersonNode, error) {
	node := domain.NewPersonNode(r.ID, nil)
	node.Rels.Father = nullToString(r.Father)
	node.Rels.Mother = nullToString(r.Mother)

	if err := unmarshalJSONField(r.DataJSON, &node.Data); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if err := unmarshalJSONField(r.SpousesJSON, &node.Rels.Spouses); err != nil {
		return nil, fmt.Errorf("unmarshal spouses: %w", err)
	}
	if err := unmarshalJSONField(r.ChildrenJSON, &node.Rels.Children); err != nil {
		return nil, fmt.Errorf("unmarshal children: %w", err)
	}

	return node, nil
}

// personInsertArgs prepares arguments for person INSERT
func personInsertArgs(treeID string, position int, node *domain.PersonNode) ([]interface{}, error) {
	dataJSON, err := marshalToNull(node.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}
	spousesJSON, err := marshalToNull(node.Rels.Spouses)
	if err != nil {
		return nil, fmt.Errorf("marshal spouses: %w", err)
	}
	childrenJSON, err := marshalToNull(node.Rels.Children)
	if err != nil {
		return nil, fmt.Errorf("marshal children: %w", err)
	}

	return []interface{}{
		treeID,
		node.ID,
		position,
		dataJSON,
		stringToNull(node.Rels.Father),
		stringToNull(node.Rels.Mother),
		spousesJSON,
		childrenJSON,
	}, nil
}
