package sx

import "encoding/json"

// ============================================================
// JSON Serialization
// ============================================================

// ExprJSON returns the JSON tree of a single expression.
func ExprJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ToJSON serialises a matrix as {"rows", "cols", "entries"} with entries in
// row-major order.
func ToJSON(m *Matrix) (string, error) {
	b, err := json.Marshal(map[string]interface{}{
		"rows":    m.rows,
		"cols":    m.cols,
		"entries": jsonAll(m.data),
	})
	return string(b), err
}
