package events

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

type Repository interface {
	Fetch(ctx context.Context, where geofilter.Expr, params models.ListParams) (models.EventPage, error)
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Columns maps event filter fields onto the events query aliases.
var Columns = geofilter.Columns{
	"slug":                    "e.slug",
	"is_online":               "e.is_online",
	"country":                 "e.country",
	"event_type":              "e.event_type",
	"price_type":              "e.price_type",
	"geo":                     "e.geo",
	"venue.geo":               "ve.geo",
	"start_date":              "e.start_date",
	"end_date":                "e.end_date",
	"title_en":                "e.title_en",
	"title_uk":                "e.title_uk",
	"description_en":          "e.description_en",
	"description_uk":          "e.description_uk",
	"area":                    "e.area",
	"city":                    "e.city",
	"custom_location_address": "e.custom_location_address",
	"venue.name":              "ve.name",
}

var orderColumns = map[string]string{
	"start_date": "e.start_date",
	"end_date":   "e.end_date",
	"title":      "e.title_en",
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
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

// Fetch returns the active events matching where, soonest first unless
// params says otherwise.
func (r *RepositoryImpl) Fetch(ctx context.Context, where geofilter.Expr, params models.ListParams) (models.EventPage, error) {
	ctx, span := otel.Tracer("EventsRepository").Start(ctx, "Fetch")
	defer span.End()

	start := time.Now()
	page, err := r.fetch(ctx, where, params)

	m := metrics.Get()
	m.EventQueriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("error", err != nil)))
	m.EventQueryDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "event fetch failed")
		r.logger.Error("Failed to fetch events", zap.Error(err))
		return models.EventPage{}, err
	}
	span.SetAttributes(
		attribute.Int("events.count", page.Count),
		attribute.Int("events.total", page.Total),
	)
	return page, nil
}

func (r *RepositoryImpl) fetch(ctx context.Context, where geofilter.Expr, params models.ListParams) (models.EventPage, error) {
	cond, err := geofilter.ToSql(where, Columns)
	if err != nil {
		return models.EventPage{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := max(params.Offset, 0)

	orderBy := make([]string, 0, len(params.Order)+2)
	for _, o := range params.Order {
		col, ok := orderColumns[o.Field]
		if !ok {
			return models.EventPage{}, fmt.Errorf("%w: cannot order by %q", models.ErrValidation, o.Field)
		}
		if o.Desc {
			col += " DESC"
		}
		orderBy = append(orderBy, col)
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "e.start_date")
	}
	orderBy = append(orderBy, "e.id")

	base := sq.And{sq.Eq{"e.status": string(models.StatusActive)}, cond}

	countQuery, countArgs, err := psql.Select("count(*)").
		From("events e").
		LeftJoin("venues ve ON ve.id = e.venue_id").
		Where(base).
		ToSql()
	if err != nil {
		return models.EventPage{}, fmt.Errorf("failed to build event count query: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return models.EventPage{}, fmt.Errorf("failed to count events: %w", err)
	}

	query, args, err := psql.Select(
		"e.id",
		"e.slug",
		"e.title_en",
		"COALESCE(e.event_type, '')",
		"COALESCE(e.price_type, '')",
		"e.is_online",
		"e.start_date",
		"e.end_date",
		"e.venue_id",
		"ve.name",
		"ST_Y(COALESCE(e.geo, ve.geo)::geometry) AS lat",
		"ST_X(COALESCE(e.geo, ve.geo)::geometry) AS lng",
	).
		From("events e").
		LeftJoin("venues ve ON ve.id = e.venue_id").
		Where(base).
		OrderBy(orderBy...).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return models.EventPage{}, fmt.Errorf("failed to build event query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return models.EventPage{}, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	items := make([]models.Event, 0, limit)
	for rows.Next() {
		var (
			e        models.Event
			lat, lng *float64
		)
		if err := rows.Scan(&e.ID, &e.Slug, &e.Title, &e.EventType, &e.PriceType, &e.IsOnline,
			&e.StartDate, &e.EndDate, &e.VenueID, &e.VenueName, &lat, &lng); err != nil {
			return models.EventPage{}, fmt.Errorf("failed to scan event row: %w", err)
		}
		if lat != nil && lng != nil {
			e.Location = &models.GeoPoint{Lat: *lat, Lng: *lng}
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return models.EventPage{}, fmt.Errorf("error iterating event rows: %w", err)
	}

	return models.EventPage{Count: len(items), Total: total, Items: items}, nil
}
