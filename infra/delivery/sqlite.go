// Package delivery implements delivery repositories on SQLite and PostgreSQL.
package delivery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	coredelivery "github.com/kilianp07/deliveryeta/core/delivery"
	"github.com/kilianp07/deliveryeta/core/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS post_offices (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, latitude REAL, longitude REAL);
CREATE TABLE IF NOT EXISTS vehicles (id INTEGER PRIMARY KEY AUTOINCREMENT, type TEXT);
CREATE TABLE IF NOT EXISTS delivery_persons (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER, rating REAL, vehicle_id INTEGER REFERENCES vehicles(id));
CREATE TABLE IF NOT EXISTS customers (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, latitude REAL, longitude REAL);
CREATE TABLE IF NOT EXISTS packages (id INTEGER PRIMARY KEY AUTOINCREMENT, type TEXT, weight REAL, customer_id INTEGER REFERENCES customers(id));
CREATE TABLE IF NOT EXISTS deliveries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	delivery_person_id INTEGER REFERENCES delivery_persons(id),
	package_id INTEGER REFERENCES packages(id),
	post_office_id INTEGER REFERENCES post_offices(id),
	traffic_level TEXT,
	weather_description TEXT,
	temperature REAL,
	humidity REAL,
	precipitation REAL,
	distance REAL,
	delivery_time REAL,
	delivered_at INTEGER
);`

// SQLiteRepository stores deliveries in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens or creates the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func insertID(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SeedReference inserts ref and stores the generated IDs back into it.
// Delivery persons get vehicles and packages get customers round-robin.
func (r *SQLiteRepository) SeedReference(ctx context.Context, ref *model.ReferenceData) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for i := range ref.PostOffices {
		p := &ref.PostOffices[i]
		if p.ID, err = insertID(ctx, tx, `INSERT INTO post_offices (name, latitude, longitude) VALUES (?, ?, ?)`, p.Name, p.Latitude, p.Longitude); err != nil {
			return err
		}
	}
	for i := range ref.Vehicles {
		v := &ref.Vehicles[i]
		if v.ID, err = insertID(ctx, tx, `INSERT INTO vehicles (type) VALUES (?)`, v.Type); err != nil {
			return err
		}
	}
	for i := range ref.DeliveryPersons {
		p := &ref.DeliveryPersons[i]
		if len(ref.Vehicles) > 0 {
			p.VehicleID = ref.Vehicles[i%len(ref.Vehicles)].ID
		}
		if p.ID, err = insertID(ctx, tx, `INSERT INTO delivery_persons (name, age, rating, vehicle_id) VALUES (?, ?, ?, ?)`, p.Name, p.Age, p.Rating, p.VehicleID); err != nil {
			return err
		}
	}
	for i := range ref.Customers {
		c := &ref.Customers[i]
		if c.ID, err = insertID(ctx, tx, `INSERT INTO customers (name, latitude, longitude) VALUES (?, ?, ?)`, c.Name, c.Latitude, c.Longitude); err != nil {
			return err
		}
	}
	for i := range ref.Packages {
		p := &ref.Packages[i]
		if len(ref.Customers) > 0 {
			p.CustomerID = ref.Customers[i%len(ref.Customers)].ID
		}
		if p.ID, err = insertID(ctx, tx, `INSERT INTO packages (type, weight, customer_id) VALUES (?, ?, ?)`, p.Type, p.Weight, p.CustomerID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Reference loads all reference entities.
func (r *SQLiteRepository) Reference(ctx context.Context) (model.ReferenceData, error) {
	var ref model.ReferenceData
	err := scanAll(ctx, r.db, `SELECT id, name, latitude, longitude FROM post_offices ORDER BY id`, func(rows *sql.Rows) error {
		var p model.PostOffice
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude); err != nil {
			return err
		}
		ref.PostOffices = append(ref.PostOffices, p)
		return nil
	})
	if err != nil {
		return ref, err
	}
	err = scanAll(ctx, r.db, `SELECT id, type FROM vehicles ORDER BY id`, func(rows *sql.Rows) error {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Type); err != nil {
			return err
		}
		ref.Vehicles = append(ref.Vehicles, v)
		return nil
	})
	if err != nil {
		return ref, err
	}
	err = scanAll(ctx, r.db, `SELECT id, name, age, rating, vehicle_id FROM delivery_persons ORDER BY id`, func(rows *sql.Rows) error {
		var p model.DeliveryPerson
		if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Rating, &p.VehicleID); err != nil {
			return err
		}
		ref.DeliveryPersons = append(ref.DeliveryPersons, p)
		return nil
	})
	if err != nil {
		return ref, err
	}
	err = scanAll(ctx, r.db, `SELECT id, name, latitude, longitude FROM customers ORDER BY id`, func(rows *sql.Rows) error {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Latitude, &c.Longitude); err != nil {
			return err
		}
		ref.Customers = append(ref.Customers, c)
		return nil
	})
	if err != nil {
		return ref, err
	}
	err = scanAll(ctx, r.db, `SELECT id, type, weight, customer_id FROM packages ORDER BY id`, func(rows *sql.Rows) error {
		var p model.Package
		if err := rows.Scan(&p.ID, &p.Type, &p.Weight, &p.CustomerID); err != nil {
			return err
		}
		ref.Packages = append(ref.Packages, p)
		return nil
	})
	return ref, err
}

func scanAll(ctx context.Context, db *sql.DB, query string, fn func(*sql.Rows) error, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Insert stores ds in a single transaction.
func (r *SQLiteRepository) Insert(ctx context.Context, ds []model.Delivery) (n int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO deliveries (delivery_person_id, package_id, post_office_id,
		traffic_level, weather_description, temperature, humidity, precipitation, distance, delivery_time, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()
	for _, d := range ds {
		if _, err = stmt.ExecContext(ctx, d.DeliveryPersonID, d.PackageID, d.PostOfficeID, d.TrafficLevel,
			d.WeatherDescription, d.Temperature, d.Humidity, d.Precipitation, d.Distance, d.DeliveryTime,
			d.DeliveredAt.UnixNano()); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(ds), nil
}

// List returns deliveries matching f ordered by id. ScanIndexed with a
// traffic level requires the traffic index to exist.
func (r *SQLiteRepository) List(ctx context.Context, f coredelivery.Filter) ([]model.Delivery, error) {
	from := "deliveries"
	switch {
	case f.Mode == coredelivery.ScanIndexed && f.TrafficLevel != "":
		from += " INDEXED BY " + trafficIndex
	case f.Mode == coredelivery.ScanFull:
		from += " NOT INDEXED"
	}
	query := `SELECT id, delivery_person_id, package_id, post_office_id, traffic_level, weather_description,
		temperature, humidity, precipitation, distance, delivery_time, delivered_at FROM ` + from
	var args []any
	if f.TrafficLevel != "" {
		query += ` WHERE traffic_level = ?`
		args = append(args, f.TrafficLevel)
	}
	query += ` ORDER BY id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	var out []model.Delivery
	err := scanAll(ctx, r.db, query, func(rows *sql.Rows) error {
		var (
			d  model.Delivery
			ts int64
		)
		if err := rows.Scan(&d.ID, &d.DeliveryPersonID, &d.PackageID, &d.PostOfficeID, &d.TrafficLevel,
			&d.WeatherDescription, &d.Temperature, &d.Humidity, &d.Precipitation, &d.Distance,
			&d.DeliveryTime, &ts); err != nil {
			return err
		}
		d.DeliveredAt = time.Unix(0, ts).UTC()
		out = append(out, d)
		return nil
	}, args...)
	return out, err
}

const trafficIndex = "idx_deliveries_traffic_level"

// EnsureTrafficIndex creates the traffic_level index.
func (r *SQLiteRepository) EnsureTrafficIndex(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS `+trafficIndex+` ON deliveries(traffic_level)`)
	return err
}

// Close closes the database.
func (r *SQLiteRepository) Close() error { return r.db.Close() }
