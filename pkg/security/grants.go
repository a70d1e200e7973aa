package security

import (
	"context"
	"fmt"

	"github.com/yanadb/yanaq/pkg/query"
)

// Wildcard in a grantee column grants every profile.
const Wildcard = "*"

// GrantTable returns a rule backed by a table of grants: current may write
// rows of target when a row has ownerColumn = target and granteeColumn equal
// to current or Wildcard. The table must be defined in the connection's
// schema and must not be a profile table.
func GrantTable(c query.Connection, table, ownerColumn, granteeColumn string) RuleFunc {
	return func(ctx context.Context, current, target string) (bool, error) {
		ex := query.NewSelectExist(c, query.WithInheritance(false))
		if err := ex.SetTable(table); err != nil {
			return false, fmt.Errorf("grant table: %w", err)
		}
		err := ex.SetWhere([]any{
			[]any{ownerColumn, "=", target},
			"and",
			[]any{granteeColumn, "in", []any{current, Wildcard}},
		})
		if err != nil {
			return false, fmt.Errorf("grant table %s: %w", table, err)
		}
		res, err := ex.SendQuery(ctx)
		if err != nil {
			return false, fmt.Errorf("reading grants of %q: %w", target, err)
		}
		return res.CountRows() > 0, nil
	}
}
