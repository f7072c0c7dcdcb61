package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/civitas-legal/lawsearch/internal/domain"
)

var (
	selectPrefixRe  = regexp.MustCompile(`(?i)^\s*SELECT\s`)
	doubledSelectRe = regexp.MustCompile(`(?i)\b(SELECT)\s+SELECT\b`)
	doubledLimitRe  = regexp.MustCompile(`(?i)\b(LIMIT)\s+LIMIT\b`)
	limitTailRe     = regexp.MustCompile(`(?i)\bLIMIT\b`)
)

// SQLGenerator produces raw (untrusted) SQL text from a natural-language query.
type SQLGenerator interface {
	TranslateToSQL(ctx context.Context, query string) (string, error)
}

// Translator turns a natural-language query into a validated, paginated SQL
// statement. The LLM output is never executed as-is: it goes through a repair
// pass first, and pagination is always injected here, never trusted from the
// model.
type Translator struct {
	llm    SQLGenerator
	logger *zap.Logger
}

func NewTranslator(llm SQLGenerator, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{llm: llm, logger: logger}
}

// Translate generates and repairs SQL for a query. The returned statement
// carries no LIMIT/OFFSET; callers wrap it with CountQuery or Paginate.
func (t *Translator) Translate(ctx context.Context, query string) (string, error) {
	raw, err := t.llm.TranslateToSQL(ctx, query)
	if err != nil {
		return "", fmt.Errorf("sql generation failed: %w", err)
	}

	repaired, err := RepairSQL(raw)
	if err != nil {
		t.logger.Warn("rejected generated SQL",
			zap.String("raw", raw),
			zap.Error(err))
		return "", err
	}

	return repaired, nil
}

// RepairSQL sanitizes raw LLM output into a bare SELECT statement:
// markdown code fences are stripped, any model-emitted LIMIT clause is cut
// off (the caller controls pagination), and accidental doubled keywords
// ("SELECT SELECT") are collapsed. Anything that does not begin with SELECT
// after repair is rejected.
func RepairSQL(raw string) (string, error) {
	sql := strings.TrimSpace(raw)
	if sql == "" {
		return "", domain.ErrNoSQLGenerated
	}

	if strings.Contains(sql, "```") {
		sql = strings.ReplaceAll(sql, "```sql", "")
		sql = strings.ReplaceAll(sql, "```", "")
		sql = strings.TrimSpace(sql)
	}

	sql = doubledSelectRe.ReplaceAllString(sql, "$1")
	sql = doubledLimitRe.ReplaceAllString(sql, "$1")

	if !selectPrefixRe.MatchString(sql) {
		return "", domain.ErrNotSelect
	}

	// Cut everything from the first LIMIT onward; pagination belongs to us.
	if loc := limitTailRe.FindStringIndex(sql); loc != nil {
		sql = strings.TrimSpace(sql[:loc[0]])
	}

	sql = strings.TrimSuffix(strings.TrimSpace(sql), ";")
	if sql == "" {
		return "", domain.ErrNoSQLGenerated
	}

	return sql, nil
}

// Paginate appends the caller-controlled LIMIT/OFFSET for the requested page.
func Paginate(sql string, page, perPage int) string {
	offset := (page - 1) * perPage
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, perPage, offset)
}

// CountQuery wraps a repaired (un-paginated) statement in a COUNT(*) subquery
// so the total row count can be estimated before fetching a page.
func CountQuery(sql string) string {
	return fmt.Sprintf("SELECT COUNT(*) AS total FROM (%s) AS subquery", sql)
}
