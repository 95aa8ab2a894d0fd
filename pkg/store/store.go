// Package store persists matches, predictions and simulation runs in sqlite.
// Table schemas are generated from struct tags so record types stay the
// single source of truth.
package store

import (
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/scorecast/scorecast/internal/logger"
)

// Record is a struct that maps to a table. Column definitions come from
// `column`, `dbtype`, `primary` and `index` struct tags.
type Record interface {
	TableName() string
	PrimaryKey() map[string]interface{}
}

// Store wraps one sqlite database. The path ":memory:" gives an ephemeral
// store, which the tests use.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating every record table that does
// not yet exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	for _, record := range []Record{&MatchRow{}, &PredictionRow{}, &SeasonSimulationRow{}} {
		if err := s.createTable(record); err != nil {
			db.Close()
			return nil, err
		}
	}
	logger.Info("Database initialized", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTable creates the record's table and indexes from its struct tags.
func (s *Store) createTable(record Record) error {
	table := record.TableName()
	createSQL := createTableSQL(record, table)
	logger.Debug("Creating table with SQL", createSQL)
	if _, err := s.db.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	for _, query := range indexSQL(record, table) {
		if _, err := s.db.Exec(query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

// Save inserts the record, or updates it when its primary key already
// exists.
func (s *Store) Save(record Record) error {
	exists, err := s.exists(record)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	if exists {
		return s.update(record)
	}
	return s.insert(record)
}

func (s *Store) exists(record Record) (bool, error) {
	where, values := whereClause(record.PrimaryKey())
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", record.TableName(), where)
	var count int
	if err := s.db.QueryRow(query, values...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) insert(record Record) error {
	table := record.TableName()
	columns, placeholders, values := insertData(record)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	logger.Debug("Insert SQL", query)
	if _, err := s.db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (s *Store) update(record Record) error {
	table := record.TableName()
	setPairs, values := updateData(record)
	where, whereValues := whereClause(record.PrimaryKey())
	values = append(values, whereValues...)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(setPairs, ", "), where)
	logger.Debug("Update SQL", query)
	if _, err := s.db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

// createTableSQL generates CREATE TABLE from struct tags.
func createTableSQL(record interface{}, table string) string {
	recordType := reflect.TypeOf(record)
	if recordType.Kind() == reflect.Ptr {
		recordType = recordType.Elem()
	}

	var columns []string
	var primaryKeys []string
	for i := 0; i < recordType.NumField(); i++ {
		field := recordType.Field(i)
		if !field.IsExported() {
			continue
		}
		dbType := field.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		name := columnName(field)
		if field.Tag.Get("primary") == "true" {
			primaryKeys = append(primaryKeys, name)
		}
		columns = append(columns, fmt.Sprintf("%s %s", name, dbType))
	}
	if len(primaryKeys) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(columns, ", "))
}

// indexSQL generates CREATE INDEX statements for tagged fields.
func indexSQL(record interface{}, table string) []string {
	recordType := reflect.TypeOf(record)
	if recordType.Kind() == reflect.Ptr {
		recordType = recordType.Elem()
	}

	var queries []string
	for i := 0; i < recordType.NumField(); i++ {
		field := recordType.Field(i)
		if field.Tag.Get("index") == "" {
			continue
		}
		name := columnName(field)
		queries = append(queries, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", table, name, table, name))
	}
	return queries
}

// insertData extracts column names, placeholders and values for INSERT.
func insertData(record interface{}) ([]string, []string, []interface{}) {
	recordValue := reflect.ValueOf(record)
	recordType := reflect.TypeOf(record)
	if recordValue.Kind() == reflect.Ptr {
		recordValue = recordValue.Elem()
		recordType = recordType.Elem()
	}

	var columns []string
	var placeholders []string
	var values []interface{}
	for i := 0; i < recordType.NumField(); i++ {
		field := recordType.Field(i)
		if !field.IsExported() || field.Tag.Get("dbtype") == "" {
			continue
		}
		columns = append(columns, columnName(field))
		placeholders = append(placeholders, "?")
		values = append(values, recordValue.Field(i).Interface())
	}
	return columns, placeholders, values
}

// updateData extracts SET pairs and values for UPDATE, excluding primary
// key columns.
func updateData(record interface{}) ([]string, []interface{}) {
	recordValue := reflect.ValueOf(record)
	recordType := reflect.TypeOf(record)
	if recordValue.Kind() == reflect.Ptr {
		recordValue = recordValue.Elem()
		recordType = recordType.Elem()
	}

	var setPairs []string
	var values []interface{}
	for i := 0; i < recordType.NumField(); i++ {
		field := recordType.Field(i)
		if !field.IsExported() || field.Tag.Get("dbtype") == "" || field.Tag.Get("primary") == "true" {
			continue
		}
		setPairs = append(setPairs, fmt.Sprintf("%s = ?", columnName(field)))
		values = append(values, recordValue.Field(i).Interface())
	}
	return setPairs, values
}

// whereClause builds an AND-joined condition from a primary key map.
// Columns are sorted so the generated SQL is stable.
func whereClause(key map[string]interface{}) (string, []interface{}) {
	columns := make([]string, 0, len(key))
	for column := range key {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	conditions := make([]string, 0, len(columns))
	values := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		conditions = append(conditions, fmt.Sprintf("%s = ?", column))
		values = append(values, key[column])
	}
	return strings.Join(conditions, " AND "), values
}

func columnName(field reflect.StructField) string {
	if name := field.Tag.Get("column"); name != "" {
		return name
	}
	return strings.ToLower(field.Name)
}
