package checks

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/rules"
)

// checkForeignKey requires target column values to exist among the source
// column values. With ignore_nulls (the default) nulls are dropped from both
// sides; otherwise a null target matches only when the source also has one.
func checkForeignKey(def rules.Definition, in Input) Result {
	sourceColumn := def.String("source_column")
	targetColumn := def.String("target_column")
	minMatch := def.FloatOr(1.0, "min_match_ratio")
	ignoreNulls := def.Bool(true, "ignore_nulls")

	src, bad := requireTable(in.Source, minMatch)
	if bad != nil {
		bad.Details = strings.Replace(bad.Details, "file missing", "source file missing", 1)
		return *bad
	}
	tgt, bad := requireTable(in.Target, minMatch)
	if bad != nil {
		bad.Details = strings.Replace(bad.Details, "file missing", "target file missing", 1)
		return *bad
	}

	srcCells, ok := src.ColumnValues(sourceColumn)
	if !ok {
		return fail(nil, minMatch, fmt.Sprintf("missing source column: %s", sourceColumn))
	}
	tgtCells, ok := tgt.ColumnValues(targetColumn)
	if !ok {
		return fail(nil, minMatch, fmt.Sprintf("missing target column: %s", targetColumn))
	}

	keys := make(map[string]struct{}, len(srcCells))
	sourceHasNull := false
	for _, c := range srcCells {
		if c == nil {
			sourceHasNull = true
			continue
		}
		keys[strings.TrimSpace(*c)] = struct{}{}
	}

	total, matched := 0, 0
	for _, c := range tgtCells {
		if c == nil {
			if ignoreNulls {
				continue
			}
			total++
			if sourceHasNull {
				matched++
			}
			continue
		}
		total++
		if _, hit := keys[strings.TrimSpace(*c)]; hit {
			matched++
		}
	}

	if total == 0 {
		return warn(1.0, minMatch, "no target keys to validate")
	}

	ratio := float64(matched) / float64(total)
	return verdict(ratio >= minMatch, core.Round6(ratio), minMatch,
		fmt.Sprintf("matched %d/%d target references", matched, total))
}
