// Package boltstorage persists entities in a local bolt database file.
// Every entity type has its own bucket, named after the entity,
// and identifiers are assigned from the bucket sequence.
package boltstorage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"strconv"

	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/storages"
	"github.com/boltdb/bolt"
)

func Open(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Bolt{DB: db}, nil
}

type Bolt struct {
	DB *bolt.DB
}

// Close the database and release the file lock.
func (s *Bolt) Close() error {
	return s.DB.Close()
}

func (s *Bolt) FindBy(ctx context.Context, d entity.Descriptor, field, value string) iterators.Iterator[entity.Entity] {
	if f, ok := d.Field(field); ok && f.Name() == d.IDField().Name() {
		return s.findByID(d, value)
	}
	var found []entity.Entity
	err := s.DB.View(func(tx *bolt.Tx) error {
		return s.forEach(tx, d, func(ent entity.Entity) error {
			ok, err := storages.Matches(ctx, d, ent, field, value)
			if err != nil {
				return err
			}
			if ok {
				found = append(found, ent)
			}
			return nil
		})
	})
	if err != nil {
		return iterators.Error[entity.Entity](err)
	}
	return iterators.Slice(found)
}

func (s *Bolt) findByID(d entity.Descriptor, id string) iterators.Iterator[entity.Entity] {
	key, ok := idToBytes(id)
	if !ok {
		return iterators.Empty[entity.Entity]()
	}
	var ent entity.Entity
	err := s.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName(d))
		if bucket == nil {
			return nil
		}
		encoded := bucket.Get(key)
		if encoded == nil {
			return nil
		}
		ent = d.CreateInstance()
		return decode(encoded, ent)
	})
	if err != nil {
		return iterators.Error[entity.Entity](err)
	}
	if ent == nil {
		return iterators.Empty[entity.Entity]()
	}
	return iterators.Slice([]entity.Entity{ent})
}

func (s *Bolt) FindAll(ctx context.Context, d entity.Descriptor) iterators.Iterator[entity.Entity] {
	var all []entity.Entity
	err := s.DB.View(func(tx *bolt.Tx) error {
		return s.forEach(tx, d, func(ent entity.Entity) error {
			all = append(all, ent)
			return nil
		})
	})
	if err != nil {
		return iterators.Error[entity.Entity](err)
	}
	return iterators.Slice(all)
}

func (s *Bolt) Save(ctx context.Context, d entity.Descriptor, ent entity.Entity) error {
	isNew, err := storages.IsNew(d, ent)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName(d))
		if err != nil {
			return err
		}
		if isNew {
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			if err := storages.AssignID(ctx, d, ent, strconv.FormatUint(seq, 10)); err != nil {
				return err
			}
		}
		id, err := storages.LookupID(ctx, d, ent)
		if err != nil {
			return err
		}
		key, ok := idToBytes(id)
		if !ok {
			return fmt.Errorf("ID is not acceptable for this storage: %s", id)
		}
		// explicit ids move the sequence forward, so generated ones never reuse them
		if n := binary.BigEndian.Uint64(key); !isNew && bucket.Sequence() < n {
			if err := bucket.SetSequence(n); err != nil {
				return err
			}
		}
		value, err := encode(ent)
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
}

func (s *Bolt) DeleteByID(ctx context.Context, d entity.Descriptor, id string) error {
	key, ok := idToBytes(id)
	if !ok {
		return errs.NoSuchRecord{Entity: d.Name(), ID: id}
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName(d))
		if bucket == nil || bucket.Get(key) == nil {
			return errs.NoSuchRecord{Entity: d.Name(), ID: id}
		}
		return bucket.Delete(key)
	})
}

func (s *Bolt) forEach(tx *bolt.Tx, d entity.Descriptor, fn func(entity.Entity) error) error {
	bucket := tx.Bucket(bucketName(d))
	if bucket == nil {
		return nil
	}
	return bucket.ForEach(func(_, encoded []byte) error {
		ent := d.CreateInstance()
		if err := decode(encoded, ent); err != nil {
			return err
		}
		return fn(ent)
	})
}

func bucketName(d entity.Descriptor) []byte {
	return []byte(d.Name())
}

func idToBytes(id string) ([]byte, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, false
	}
	return uintToBytes(n), true
}

// uintToBytes returns an 8-byte big endian representation of v.
func uintToBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func encode(ent entity.Entity) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(ent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, ptr entity.Entity) error {
	return gob.NewDecoder(bytes.NewBuffer(data)).Decode(ptr)
}
