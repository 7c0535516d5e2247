package venues

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geofilter"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/app/observability/metrics"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the data-fetch boundary of the discovery map.
type Repository interface {
	Fetch(ctx context.Context, where geofilter.Expr, params models.ListParams) (models.Page, error)
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Columns maps venue filter fields onto the venues query aliases.
var Columns = geofilter.Columns{
	"slug":           "v.slug",
	"category":       "v.category",
	"country":        "v.country",
	"geo":            "v.geo",
	"parent.geo":     "p.geo",
	"name":           "v.name",
	"description_en": "v.description_en",
	"description_uk": "v.description_uk",
	"address":        "v.address",
	"city":           "v.city",
	"parent.name":    "p.name",
}

var orderColumns = map[string]string{
	"name":       "v.name",
	"created_at": "v.created_at",
	"category":   "v.category",
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type RepositoryImpl struct {
	logger *zap.Logger
	db     Querier
}

func NewRepository(db Querier, logger *zap.Logger) *RepositoryImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepositoryImpl{
		logger: logger,
		db:     db,
	}
}

// Fetch returns the public venues matching where. Only active venues are ever
// listed; Total counts every match, Count the items on this page.
func (r *RepositoryImpl) Fetch(ctx context.Context, where geofilter.Expr, params models.ListParams) (models.Page, error) {
	ctx, span := otel.Tracer("VenuesRepository").Start(ctx, "Fetch")
	defer span.End()

	start := time.Now()
	page, err := r.fetch(ctx, where, params)

	m := metrics.Get()
	m.VenueQueriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("error", err != nil)))
	m.VenueQueryDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "venue fetch failed")
		r.logger.Error("Failed to fetch venues", zap.Error(err))
		return models.Page{}, err
	}
	span.SetAttributes(
		attribute.Int("venues.count", page.Count),
		attribute.Int("venues.total", page.Total),
	)
	return page, nil
}

func (r *RepositoryImpl) fetch(ctx context.Context, where geofilter.Expr, params models.ListParams) (models.Page, error) {
	cond, err := geofilter.ToSql(where, Columns)
	if err != nil {
		return models.Page{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	orderBy := make([]string, 0, len(params.Order)+1)
	for _, o := range params.Order {
		col, ok := orderColumns[o.Field]
		if !ok {
			return models.Page{}, fmt.Errorf("%w: cannot order by %q", models.ErrValidation, o.Field)
		}
		if o.Desc {
			col += " DESC"
		}
		orderBy = append(orderBy, col)
	}
	orderBy = append(orderBy, "v.id")

	base := sq.And{sq.Eq{"v.status": string(models.StatusActive)}, cond}

	countQuery, countArgs, err := psql.Select("count(*)").
		From("venues v").
		LeftJoin("venues p ON p.id = v.parent_id").
		Where(base).
		ToSql()
	if err != nil {
		return models.Page{}, fmt.Errorf("failed to build venue count query: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return models.Page{}, fmt.Errorf("failed to count venues: %w", err)
	}

	query, args, err := psql.Select(
		"v.id",
		"v.slug",
		"v.name",
		"v.category",
		"v.status",
		"ST_Y(COALESCE(v.geo, p.geo)::geometry) AS lat",
		"ST_X(COALESCE(v.geo, p.geo)::geometry) AS lng",
		"EXISTS (SELECT 1 FROM events e WHERE e.venue_id = v.id AND e.end_date >= now()) AS has_events",
	).
		From("venues v").
		LeftJoin("venues p ON p.id = v.parent_id").
		Where(base).
		OrderBy(orderBy...).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return models.Page{}, fmt.Errorf("failed to build venue query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return models.Page{}, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	items := make([]models.DiscoverableEntity, 0, limit)
	for rows.Next() {
		var (
			e        models.DiscoverableEntity
			category string
			status   string
			lat, lng *float64
		)
		if err := rows.Scan(&e.ID, &e.Slug, &e.Name, &category, &status, &lat, &lng, &e.HasRelatedActivity); err != nil {
			return models.Page{}, fmt.Errorf("failed to scan venue row: %w", err)
		}
		e.Category = models.Category(category)
		e.Status = models.Status(status)
		if lat != nil && lng != nil {
			e.Location = &models.GeoPoint{Lat: *lat, Lng: *lng}
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return models.Page{}, fmt.Errorf("error iterating venue rows: %w", err)
	}

	return models.Page{Count: len(items), Total: total, Items: items}, nil
}
