package strapi

import (
	"fmt"
	"net/url"
	"strings"
)

// OpEq is the Strapi equality filter operator.
const OpEq = "$eq"

// Query builds Strapi list query strings such as filters[cart][id][$eq]=7&populate=product.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Filter adds filters[path...][op]=value.
func (q *Query) Filter(op string, value any, path ...string) *Query {
	if len(path) == 0 {
		return q
	}
	var b strings.Builder
	b.WriteString("filters")
	for _, p := range path {
		b.WriteString("[" + p + "]")
	}
	b.WriteString("[" + op + "]")
	q.values.Add(b.String(), fmt.Sprint(value))
	return q
}

// Eq is Filter with the $eq operator.
func (q *Query) Eq(value any, path ...string) *Query {
	return q.Filter(OpEq, value, path...)
}

// Populate requests relations. No arguments populates everything ("*").
func (q *Query) Populate(fields ...string) *Query {
	switch len(fields) {
	case 0:
		q.values.Set("populate", "*")
	case 1:
		q.values.Set("populate", fields[0])
	default:
		for i, f := range fields {
			q.values.Set(fmt.Sprintf("populate[%d]", i), f)
		}
	}
	return q
}

// Values returns a copy of the encoded parameters.
func (q *Query) Values() url.Values {
	out := make(url.Values, len(q.values))
	for k, v := range q.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Encode renders the query string in sorted key order.
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	return q.values.Encode()
}
