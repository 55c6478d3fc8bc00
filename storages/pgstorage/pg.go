// Package pgstorage persists entities as JSON documents in a PostgreSQL table.
package pgstorage

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/storages"
	_ "github.com/lib/pq"
	uuid "github.com/satori/go.uuid"
)

const DefaultTable = "persistroute_entities"

func Open(dataSourceName string) (*PG, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}
	return &PG{DB: db, Table: DefaultTable}, nil
}

type PG struct {
	DB    *sql.DB
	Table string
}

func (pg *PG) Close() error {
	return pg.DB.Close()
}

// Migrate creates the documents table when it is missing.
func (pg *PG) Migrate(ctx context.Context) error {
	_, err := pg.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+pg.table()+` (
	seq         BIGSERIAL,
	entity_type TEXT  NOT NULL,
	id          TEXT  NOT NULL,
	data        JSONB NOT NULL,
	PRIMARY KEY (entity_type, id)
)`)
	return err
}

func (pg *PG) FindBy(ctx context.Context, d entity.Descriptor, field, value string) iterators.Iterator[entity.Entity] {
	if f, ok := d.Field(field); ok && f.Name() == d.IDField().Name() {
		return pg.query(ctx, d, `SELECT data FROM `+pg.table()+` WHERE entity_type = $1 AND id = $2`, d.Name(), value)
	}
	return iterators.Filter[entity.Entity](pg.FindAll(ctx, d), func(ent entity.Entity) (bool, error) {
		return storages.Matches(ctx, d, ent, field, value)
	})
}

func (pg *PG) FindAll(ctx context.Context, d entity.Descriptor) iterators.Iterator[entity.Entity] {
	return pg.query(ctx, d, `SELECT data FROM `+pg.table()+` WHERE entity_type = $1 ORDER BY seq`, d.Name())
}

func (pg *PG) Save(ctx context.Context, d entity.Descriptor, ent entity.Entity) error {
	isNew, err := storages.IsNew(d, ent)
	if err != nil {
		return err
	}
	if isNew {
		if err := storages.AssignID(ctx, d, ent, uuid.NewV4().String()); err != nil {
			return err
		}
	}
	id, err := storages.LookupID(ctx, d, ent)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = pg.DB.ExecContext(ctx, `INSERT INTO `+pg.table()+` (entity_type, id, data) VALUES ($1, $2, $3)
ON CONFLICT (entity_type, id) DO UPDATE SET data = EXCLUDED.data`, d.Name(), id, data)
	return err
}

func (pg *PG) DeleteByID(ctx context.Context, d entity.Descriptor, id string) error {
	res, err := pg.DB.ExecContext(ctx, `DELETE FROM `+pg.table()+` WHERE entity_type = $1 AND id = $2`, d.Name(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NoSuchRecord{Entity: d.Name(), ID: id}
	}
	return nil
}

func (pg *PG) query(ctx context.Context, d entity.Descriptor, query string, args ...any) iterators.Iterator[entity.Entity] {
	rows, err := pg.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return iterators.Error[entity.Entity](err)
	}
	return iterators.SQLRows[entity.Entity](rows, iterators.SQLRowMapperFunc[entity.Entity](func(s iterators.SQLRowScanner) (entity.Entity, error) {
		var data []byte
		if err := s.Scan(&data); err != nil {
			return nil, err
		}
		ent := d.CreateInstance()
		return ent, json.Unmarshal(data, ent)
	}))
}

func (pg *PG) table() string {
	if pg.Table == "" {
		return DefaultTable
	}
	return pg.Table
}
