package compile

import "strings"

// GroupBy lists the grouping expressions of a statement
type GroupBy struct {
	Expressions []string
}

// EmptyGroupBy is the ungrouped aggregation
var EmptyGroupBy = GroupBy{}

func (g GroupBy) IsEmpty() bool { return len(g.Expressions) == 0 }

// OrderBy lists the ordering expressions of a statement
type OrderBy struct {
	Expressions []string
}

// EmptyOrderBy keeps the natural order of the scan
var EmptyOrderBy = OrderBy{}

func (o OrderBy) IsEmpty() bool { return len(o.Expressions) == 0 }

// ExplainPlan is the human readable description of a plan, one step per line
type ExplainPlan struct {
	Steps []string
}

// EmptyExplainPlan describes nothing
var EmptyExplainPlan = ExplainPlan{}

func (e ExplainPlan) String() string {
	return strings.Join(e.Steps, "\n")
}

// ParameterMetaData describes the bind parameters a plan accepts
type ParameterMetaData struct {
	Count int
}

// EmptyParameterMetaData is the metadata of a plan without parameters
var EmptyParameterMetaData = ParameterMetaData{}

func (p ParameterMetaData) ParameterCount() int { return p.Count }
