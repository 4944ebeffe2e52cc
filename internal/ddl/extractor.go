package ddl

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/ddlschema/internal/schema"
)

// DecodeSQL converts raw dump bytes to text, dropping any byte sequences that
// are not valid UTF-8
func DecodeSQL(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "")
}

// Extractor runs the full collect, constraint and snapshot pipeline
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new extractor. A nil logger disables logging.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract parses sqlText with a fresh registry and returns its snapshot
func (e *Extractor) Extract(sqlText string) []schema.TableSnapshot {
	tables := CollectTables(sqlText)
	tables = ParseConstraints(sqlText, tables)

	if ce := e.logger.Check(zap.DebugLevel, "extracted schema"); ce != nil {
		statements, foreignKeys := 0, 0
		for _, t := range tables {
			statements += len(t.ConstraintStatements)
			foreignKeys += len(t.ForeignKeys)
		}
		ce.Write(
			zap.Int("bytes", len(sqlText)),
			zap.Int("tables", len(tables)),
			zap.Int("constraint_statements", statements),
			zap.Int("foreign_keys", foreignKeys),
		)
	}

	return Snapshot(tables)
}

// Extract runs the pipeline without logging
func Extract(sqlText string) []schema.TableSnapshot {
	return NewExtractor(nil).Extract(sqlText)
}
