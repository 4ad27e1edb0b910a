package delivery

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	coredelivery "github.com/kilianp07/deliveryeta/core/delivery"
	"github.com/kilianp07/deliveryeta/core/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS post_offices (id BIGSERIAL PRIMARY KEY, name TEXT, latitude DOUBLE PRECISION, longitude DOUBLE PRECISION);
CREATE TABLE IF NOT EXISTS vehicles (id BIGSERIAL PRIMARY KEY, type TEXT);
CREATE TABLE IF NOT EXISTS delivery_persons (id BIGSERIAL PRIMARY KEY, name TEXT, age INTEGER, rating DOUBLE PRECISION, vehicle_id BIGINT REFERENCES vehicles(id));
CREATE TABLE IF NOT EXISTS customers (id BIGSERIAL PRIMARY KEY, name TEXT, latitude DOUBLE PRECISION, longitude DOUBLE PRECISION);
CREATE TABLE IF NOT EXISTS packages (id BIGSERIAL PRIMARY KEY, type TEXT, weight DOUBLE PRECISION, customer_id BIGINT REFERENCES customers(id));
CREATE TABLE IF NOT EXISTS deliveries (
	id BIGSERIAL PRIMARY KEY,
	delivery_person_id BIGINT REFERENCES delivery_persons(id),
	package_id BIGINT REFERENCES packages(id),
	post_office_id BIGINT REFERENCES post_offices(id),
	traffic_level TEXT,
	weather_description TEXT,
	temperature DOUBLE PRECISION,
	humidity DOUBLE PRECISION,
	precipitation DOUBLE PRECISION,
	distance DOUBLE PRECISION,
	delivery_time DOUBLE PRECISION,
	delivered_at TIMESTAMPTZ DEFAULT now()
);`

// PostgresRepository stores deliveries in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to dsn and ensures the schema.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// SeedReference inserts ref and stores the generated IDs back into it.
func (r *PostgresRepository) SeedReference(ctx context.Context, ref *model.ReferenceData) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range ref.PostOffices {
			p := &ref.PostOffices[i]
			if err := tx.QueryRow(ctx, `INSERT INTO post_offices (name, latitude, longitude) VALUES ($1, $2, $3) RETURNING id`,
				p.Name, p.Latitude, p.Longitude).Scan(&p.ID); err != nil {
				return err
			}
		}
		for i := range ref.Vehicles {
			v := &ref.Vehicles[i]
			if err := tx.QueryRow(ctx, `INSERT INTO vehicles (type) VALUES ($1) RETURNING id`, v.Type).Scan(&v.ID); err != nil {
				return err
			}
		}
		for i := range ref.DeliveryPersons {
			p := &ref.DeliveryPersons[i]
			if len(ref.Vehicles) > 0 {
				p.VehicleID = ref.Vehicles[i%len(ref.Vehicles)].ID
			}
			if err := tx.QueryRow(ctx, `INSERT INTO delivery_persons (name, age, rating, vehicle_id) VALUES ($1, $2, $3, $4) RETURNING id`,
				p.Name, p.Age, p.Rating, p.VehicleID).Scan(&p.ID); err != nil {
				return err
			}
		}
		for i := range ref.Customers {
			c := &ref.Customers[i]
			if err := tx.QueryRow(ctx, `INSERT INTO customers (name, latitude, longitude) VALUES ($1, $2, $3) RETURNING id`,
				c.Name, c.Latitude, c.Longitude).Scan(&c.ID); err != nil {
				return err
			}
		}
		for i := range ref.Packages {
			p := &ref.Packages[i]
			if len(ref.Customers) > 0 {
				p.CustomerID = ref.Customers[i%len(ref.Customers)].ID
			}
			if err := tx.QueryRow(ctx, `INSERT INTO packages (type, weight, customer_id) VALUES ($1, $2, $3) RETURNING id`,
				p.Type, p.Weight, p.CustomerID).Scan(&p.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reference loads all reference entities.
func (r *PostgresRepository) Reference(ctx context.Context) (model.ReferenceData, error) {
	var (
		ref model.ReferenceData
		err error
	)
	if ref.PostOffices, err = collect(ctx, r.pool, `SELECT id, name, latitude, longitude FROM post_offices ORDER BY id`,
		func(row pgx.CollectableRow) (model.PostOffice, error) {
			var p model.PostOffice
			err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude)
			return p, err
		}); err != nil {
		return ref, err
	}
	if ref.Vehicles, err = collect(ctx, r.pool, `SELECT id, type FROM vehicles ORDER BY id`,
		func(row pgx.CollectableRow) (model.Vehicle, error) {
			var v model.Vehicle
			err := row.Scan(&v.ID, &v.Type)
			return v, err
		}); err != nil {
		return ref, err
	}
	if ref.DeliveryPersons, err = collect(ctx, r.pool, `SELECT id, name, age, rating, vehicle_id FROM delivery_persons ORDER BY id`,
		func(row pgx.CollectableRow) (model.DeliveryPerson, error) {
			var p model.DeliveryPerson
			err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Rating, &p.VehicleID)
			return p, err
		}); err != nil {
		return ref, err
	}
	if ref.Customers, err = collect(ctx, r.pool, `SELECT id, name, latitude, longitude FROM customers ORDER BY id`,
		func(row pgx.CollectableRow) (model.Customer, error) {
			var c model.Customer
			err := row.Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude)
			return c, err
		}); err != nil {
		return ref, err
	}
	ref.Packages, err = collect(ctx, r.pool, `SELECT id, type, weight, customer_id FROM packages ORDER BY id`,
		func(row pgx.CollectableRow) (model.Package, error) {
			var p model.Package
			err := row.Scan(&p.ID, &p.Type, &p.Weight, &p.CustomerID)
			return p, err
		})
	return ref, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func collect[T any](ctx context.Context, q querier, sql string, fn pgx.RowToFunc[T], args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, fn)
}

// Insert copies ds into the deliveries table.
func (r *PostgresRepository) Insert(ctx context.Context, ds []model.Delivery) (int, error) {
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{"deliveries"},
		[]string{"delivery_person_id", "package_id", "post_office_id", "traffic_level", "weather_description",
			"temperature", "humidity", "precipitation", "distance", "delivery_time", "delivered_at"},
		pgx.CopyFromSlice(len(ds), func(i int) ([]any, error) {
			d := ds[i]
			return []any{d.DeliveryPersonID, d.PackageID, d.PostOfficeID, d.TrafficLevel, d.WeatherDescription,
				d.Temperature, d.Humidity, d.Precipitation, d.Distance, d.DeliveryTime, d.DeliveredAt}, nil
		}))
	return int(n), err
}

// List returns deliveries matching f. PostgreSQL has no index hints, so the
// scan mode toggles the planner's index settings for the transaction.
func (r *PostgresRepository) List(ctx context.Context, f coredelivery.Filter) ([]model.Delivery, error) {
	query := `SELECT id, delivery_person_id, package_id, post_office_id, traffic_level, weather_description,
		temperature, humidity, precipitation, distance, delivery_time, delivered_at FROM deliveries`
	var args []any
	if f.TrafficLevel != "" {
		args = append(args, f.TrafficLevel)
		query += ` WHERE traffic_level = $1`
	}
	query += ` ORDER BY id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	var out []model.Delivery
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		switch f.Mode {
		case coredelivery.ScanFull:
			if _, err := tx.Exec(ctx, `SET LOCAL enable_indexscan = off; SET LOCAL enable_bitmapscan = off`); err != nil {
				return err
			}
		case coredelivery.ScanIndexed:
			if _, err := tx.Exec(ctx, `SET LOCAL enable_seqscan = off`); err != nil {
				return err
			}
		}
		var err error
		out, err = collect(ctx, tx, query, func(row pgx.CollectableRow) (model.Delivery, error) {
			var d model.Delivery
			err := row.Scan(&d.ID, &d.DeliveryPersonID, &d.PackageID, &d.PostOfficeID, &d.TrafficLevel,
				&d.WeatherDescription, &d.Temperature, &d.Humidity, &d.Precipitation, &d.Distance,
				&d.DeliveryTime, &d.DeliveredAt)
			return d, err
		}, args...)
		return err
	})
	return out, err
}

// EnsureTrafficIndex creates the traffic_level index.
func (r *PostgresRepository) EnsureTrafficIndex(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS `+trafficIndex+` ON deliveries(traffic_level)`)
	return err
}

// Close closes the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
