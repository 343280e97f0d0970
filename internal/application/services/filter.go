package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/reglet-dev/parserkit/internal/application/dto"
	apperrors "github.com/reglet-dev/parserkit/internal/application/errors"
	"github.com/reglet-dev/parserkit/internal/application/ports"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// RecordEnv defines the variables available during filter expression evaluation.
type RecordEnv struct {
	Index     int               `expr:"index"`
	Offset    int               `expr:"offset"`
	Text      string            `expr:"text"`
	Fields    []string          `expr:"fields"`
	Columns   map[string]string `expr:"columns"`
	Timestamp int               `expr:"timestamp"`
	HasTime   bool              `expr:"has_timestamp"`
	// Attachment is the attachment name, empty when there is none
	Attachment string `expr:"attachment"`
}

// ExprFilter implements ports.RecordFilter with an expr-lang boolean expression.
type ExprFilter struct {
	program  *vm.Program
	captions []string
}

var _ ports.RecordFilter = (*ExprFilter)(nil)

// NewExprFilter compiles expression. Column values are addressable by caption
// through columns["Caption"] when render uses columns.
func NewExprFilter(expression string, render parsersdk.RenderOptions) (*ExprFilter, error) {
	program, err := expr.Compile(expression, expr.Env(RecordEnv{}), expr.AsBool())
	if err != nil {
		return nil, apperrors.NewValidationError("filter", "invalid filter expression", err.Error())
	}

	f := &ExprFilter{program: program}
	if render.IsColumns() {
		for _, c := range render.Columns.Columns {
			f.captions = append(f.captions, c.Caption)
		}
	}
	return f, nil
}

// Match evaluates the expression against record.
func (f *ExprFilter) Match(record dto.ParsedRecord) (bool, error) {
	out, err := expr.Run(f.program, f.env(record))
	if err != nil {
		return false, fmt.Errorf("filter evaluation failed at record %d: %w", record.Index, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out)
	}
	return matched, nil
}

func (f *ExprFilter) env(record dto.ParsedRecord) RecordEnv {
	fields := record.Fields()
	env := RecordEnv{
		Index:   int(record.Index),  //nolint:gosec // G115: record counts fit in int
		Offset:  int(record.Offset), //nolint:gosec // G115: stream offsets fit in int
		Text:    record.Text(),
		Fields:  fields,
		Columns: make(map[string]string, len(f.captions)),
	}
	for i, caption := range f.captions {
		if i < len(fields) {
			env.Columns[caption] = fields[i]
		}
	}
	if record.Timestamp != nil {
		env.Timestamp = int(*record.Timestamp) //nolint:gosec // G115: unix millis fit in int
		env.HasTime = true
	}
	if record.Attachment != nil {
		env.Attachment = record.Attachment.Name
	}
	return env
}
