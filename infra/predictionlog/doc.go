// Package predictionlog provides networked prediction log stores: PostgreSQL
// for the operational log and ClickHouse for analytics. Both register
// themselves with core/predictionlog under the "postgres" and "clickhouse"
// types.
package predictionlog
