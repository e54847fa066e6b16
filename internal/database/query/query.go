package query

import (
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const MaxResultsDefault = 100

// Filter provides a structure for the common listing parameters.
type Filter struct {
	Offset  uint64 `json:"offset,omitempty" schema:"offset"`
	Limit   uint64 `json:"limit,omitempty" schema:"limit"`
	Desc    bool   `json:"desc,omitempty" schema:"desc"`
	OrderBy string `json:"order_by,omitempty" schema:"order_by"`
}

// ApplySafeOrder only orders by a column listed in validColumns since order by values cannot be
// parameterized. Unknown columns fall back to fallback.
func (qf Filter) ApplySafeOrder(builder sq.SelectBuilder, validColumns []string, fallback string) sq.SelectBuilder {
	column := strings.ToLower(qf.OrderBy)
	if !slices.Contains(validColumns, column) {
		column = fallback
	}

	if qf.Desc {
		return builder.OrderBy(column + " DESC")
	}

	return builder.OrderBy(column + " ASC")
}

func (qf Filter) ApplyLimitOffsetDefault(builder sq.SelectBuilder) sq.SelectBuilder {
	return qf.ApplyLimitOffset(builder, MaxResultsDefault)
}

// ApplyLimitOffset caps the limit at maxLimit. A zero limit means maxLimit.
func (qf Filter) ApplyLimitOffset(builder sq.SelectBuilder, maxLimit uint64) sq.SelectBuilder {
	if qf.Limit == 0 || qf.Limit > maxLimit {
		qf.Limit = maxLimit
	}

	builder = builder.Limit(qf.Limit)

	if qf.Offset > 0 {
		builder = builder.Offset(qf.Offset)
	}

	return builder
}
