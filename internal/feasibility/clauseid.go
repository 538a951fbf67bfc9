package feasibility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"exprdiag/internal/expression"
)

// ClauseID derives the stable identity of a clause from its varPath,
// operator, threshold, and source path. The id must survive re-runs and
// platform changes bit-for-bit: run-over-run report diffing keys on it.
func ClauseID(c expression.NonAxisClause) string {
	canonical := strings.Join([]string{
		c.VarPath,
		c.Op,
		strconv.FormatFloat(c.Threshold, 'g', -1, 64),
		c.SourcePath,
	}, "|")
	return fmt.Sprintf("%016x", xxhash.Sum64String(canonical))
}
