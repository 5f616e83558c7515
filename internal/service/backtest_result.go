package service

import (
	"encoding/json"
	"fmt"
	"os"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
)

// Summary fields are projected out of the engine's result document with
// JMESPath. The document nests per-strategy stats under its strategy name,
// so each expression flattens the single-strategy case.
const (
	exprTotalTrades = "strategy.*.total_trades | [0]"
	exprProfitTotal = "strategy.*.profit_total | [0]"
	exprWins        = "strategy.*.wins | [0]"
	exprLosses      = "strategy.*.losses | [0]"
)

// ResultParser extracts a compact summary from the JSON artifact a finished
// engine run exports.
type ResultParser struct {
	totalTrades jmespath.JMESPath
	profitTotal jmespath.JMESPath
	wins        jmespath.JMESPath
	losses      jmespath.JMESPath
}

// NewResultParser compiles the summary expressions.
func NewResultParser() (*ResultParser, error) {
	p := &ResultParser{}
	for _, binding := range []struct {
		expr string
		dst  *jmespath.JMESPath
	}{
		{exprTotalTrades, &p.totalTrades},
		{exprProfitTotal, &p.profitTotal},
		{exprWins, &p.wins},
		{exprLosses, &p.losses},
	} {
		compiled, err := jmespath.Compile(binding.expr)
		if err != nil {
			return nil, fmt.Errorf("compile summary expression %q: %w", binding.expr, err)
		}
		*binding.dst = compiled
	}
	return p, nil
}

// ParseFile reads and summarizes the result artifact at path.
func (p *ResultParser) ParseFile(path string) (*model.BacktestSummary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "read result artifact %s", path)
	}
	return p.Parse(raw)
}

// Parse summarizes a raw result document.
func (p *ResultParser) Parse(raw []byte) (*model.BacktestSummary, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode result artifact")
	}

	summary := &model.BacktestSummary{}
	summary.TotalTrades = int(p.number(doc, p.totalTrades))
	summary.ProfitTotal = p.number(doc, p.profitTotal)
	summary.Wins = int(p.number(doc, p.wins))
	summary.Losses = int(p.number(doc, p.losses))
	return summary, nil
}

// number evaluates expr against doc and coerces the result to a float.
// Missing or non-numeric values read as zero; a sparse summary beats a
// failed run.
func (p *ResultParser) number(doc any, expr jmespath.JMESPath) float64 {
	out, err := expr.Search(doc)
	if err != nil {
		return 0
	}
	switch v := out.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}
