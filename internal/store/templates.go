// Package store implements the persistence collaborators the assessment
// workers depend on: the template registry, the response store and the
// rule/recommendation catalog. The scoring engine itself never touches this
// package; workers fetch through it and hand plain values to the engine.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"umkm-assessment-workers/internal/assessment"
	commonerrors "umkm-assessment-workers/internal/common/errors"
	"umkm-assessment-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"
)

// templateSchema validates template definitions pulled from the registry
// table before they are handed to the engine. Content authors edit these
// rows directly, so structural drift is a real failure mode.
const templateSchema = `{
	"type": "object",
	"required": ["id", "category", "sections"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"category": {"type": "string", "minLength": 1},
		"estimatedMinutes": {"type": "integer", "minimum": 0},
		"sections": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "questions"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"questions": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["id", "type", "weight", "category"],
							"properties": {
								"id": {"type": "string", "minLength": 1},
								"type": {"enum": ["multiple_choice", "scale", "boolean", "text", "file_upload"]},
								"weight": {"type": "number", "minimum": 0},
								"category": {"type": "string", "minLength": 1}
							}
						}
					}
				}
			}
		}
	}
}`

// TemplateStore is the template registry: postgres rows of JSON definitions
// with a redis read-through cache. Templates are immutable once published,
// so cached entries only expire, never invalidate.
type TemplateStore struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewTemplateStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *TemplateStore {
	return &TemplateStore{db: db, redis: rdb, cacheTTL: cacheTTL, logger: log}
}

// GetByID fetches a template definition by id, preferring the cache.
func (s *TemplateStore) GetByID(ctx context.Context, templateID string) (*assessment.Template, error) {
	return s.get(ctx, "tpl:id:"+templateID,
		`SELECT definition FROM assessment_templates WHERE id = $1`, templateID)
}

// GetByCategory fetches the active template for an assessment category.
func (s *TemplateStore) GetByCategory(ctx context.Context, category string) (*assessment.Template, error) {
	return s.get(ctx, "tpl:cat:"+category,
		`SELECT definition FROM assessment_templates WHERE category = $1 AND active = true`, category)
}

func (s *TemplateStore) get(ctx context.Context, cacheKey, query, arg string) (*assessment.Template, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var tpl assessment.Template
			if err := json.Unmarshal([]byte(cached), &tpl); err == nil {
				return &tpl, nil
			}
			// Corrupt cache entry: fall through to the database.
			s.redis.Del(ctx, cacheKey)
		}
	}

	var definition []byte
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&definition)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commonerrors.NewTemplateNotFoundError(arg)
		}
		return nil, commonerrors.NewQueryExecutionFailedError("template lookup", err)
	}

	if err := validateTemplateDefinition(definition); err != nil {
		return nil, commonerrors.NewTemplateValidationFailedError(err.Error())
	}

	var tpl assessment.Template
	if err := json.Unmarshal(definition, &tpl); err != nil {
		return nil, commonerrors.NewTemplateValidationFailedError(err.Error())
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, definition, s.cacheTTL).Err(); err != nil {
			s.logger.Debug("template cache write failed", map[string]interface{}{
				"cacheKey": cacheKey,
				"error":    err.Error(),
			})
		}
	}
	return &tpl, nil
}

func validateTemplateDefinition(definition []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(templateSchema),
		gojsonschema.NewBytesLoader(definition),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		msg := "template definition invalid:"
		for _, desc := range result.Errors() {
			msg += " " + desc.String() + ";"
		}
		return errors.New(msg)
	}
	return nil
}
