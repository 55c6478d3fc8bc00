// Package storagecontracts holds the behaviour every storages.Store implementation must share.
package storagecontracts

import (
	"context"
	"errors"
	"testing"

	"github.com/Pallinder/go-randomdata"
	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/storages"
	"go.llib.dev/testcase"
)

type Author struct {
	ID   string
	Name string
}

type Note struct {
	ID     string
	Title  string
	Body   string
	Pinned bool
	Stars  int
	Author *Author `persist:"author"`
}

var (
	Notes   = entity.MustReflect[Note]("note")
	Authors = entity.MustReflect[Author]("author")
	// Drafts shares the Go type of Notes, but it is a distinct entity.
	Drafts = entity.MustReflect[Note]("draft")
)

func NewNote() *Note {
	return &Note{
		Title:  randomdata.SillyName(),
		Body:   randomdata.Paragraph(),
		Pinned: randomdata.Boolean(),
		Stars:  randomdata.Number(0, 5),
	}
}

type Store struct {
	Subject func(testing.TB) storages.Store
}

func (c Store) Test(t *testing.T) {
	c.Spec(testcase.NewSpec(t))
}

func (c Store) Spec(s *testcase.Spec) {
	var (
		ctx     = context.Background()
		subject = testcase.Let(s, func(t *testcase.T) storages.Store {
			return c.Subject(t)
		})
	)
	save := func(t *testcase.T, d entity.Descriptor, ent entity.Entity) string {
		t.Must.NoError(subject.Get(t).Save(ctx, d, ent))
		id, err := storages.LookupID(ctx, d, ent)
		t.Must.NoError(err)
		return id
	}
	collect := func(t *testcase.T, i iterators.Iterator[entity.Entity]) []entity.Entity {
		vs, err := iterators.Collect(i)
		t.Must.NoError(err)
		return vs
	}

	s.Describe("Save", func(s *testcase.Spec) {
		s.Test("a new entity gets an identifier and can be found by it", func(t *testcase.T) {
			note := NewNote()
			id := save(t, Notes, note)
			t.Must.True(id != "")

			found, ok, err := storages.FindByID(ctx, subject.Get(t), Notes, id)
			t.Must.NoError(err)
			t.Must.True(ok)
			t.Must.Equal(note, found.(*Note))
		})

		s.Test("new entities get distinct identifiers", func(t *testcase.T) {
			id1 := save(t, Notes, NewNote())
			id2 := save(t, Notes, NewNote())
			t.Must.True(id1 != id2)
		})

		s.Test("an entity with identifier replaces the stored one", func(t *testcase.T) {
			note := NewNote()
			id := save(t, Notes, note)

			updated := NewNote()
			updated.ID = id
			updated.Title = "updated"
			t.Must.NoError(subject.Get(t).Save(ctx, Notes, updated))

			found, ok, err := storages.FindByID(ctx, subject.Get(t), Notes, id)
			t.Must.NoError(err)
			t.Must.True(ok)
			t.Must.Equal("updated", found.(*Note).Title)
			t.Must.Equal(1, len(collect(t, subject.Get(t).FindAll(ctx, Notes))))
		})

		s.Test("identifiers given by the caller are not reused for new entities", func(t *testcase.T) {
			explicit := NewNote()
			explicit.ID = "3"
			explicit.Title = "explicit"
			t.Must.NoError(subject.Get(t).Save(ctx, Notes, explicit))

			ids := map[string]struct{}{"3": {}}
			for i := 0; i < 4; i++ {
				id := save(t, Notes, NewNote())
				_, seen := ids[id]
				t.Must.False(seen)
				ids[id] = struct{}{}
			}

			found, ok, err := storages.FindByID(ctx, subject.Get(t), Notes, "3")
			t.Must.NoError(err)
			t.Must.True(ok)
			t.Must.Equal("explicit", found.(*Note).Title)
			t.Must.Equal(5, len(collect(t, subject.Get(t).FindAll(ctx, Notes))))
		})

		s.Test("mutating the saved value doesn't change the stored one", func(t *testcase.T) {
			note := NewNote()
			id := save(t, Notes, note)
			note.Title = "changed locally"

			found, _, err := storages.FindByID(ctx, subject.Get(t), Notes, id)
			t.Must.NoError(err)
			t.Must.True(found.(*Note).Title != "changed locally")
		})
	})

	s.Describe("FindBy", func(s *testcase.Spec) {
		s.Test("only entities with the matching field value are yielded", func(t *testcase.T) {
			a, b := NewNote(), NewNote()
			a.Title, b.Title = "alpha", "beta"
			save(t, Notes, a)
			save(t, Notes, b)

			found := collect(t, subject.Get(t).FindBy(ctx, Notes, "title", "beta"))
			t.Must.Equal([]entity.Entity{b}, found)
		})

		s.Test("references are matched by the referenced identifier", func(t *testcase.T) {
			author := &Author{Name: randomdata.FullName(randomdata.RandomGender)}
			authorID := save(t, Authors, author)
			note := NewNote()
			note.Author = author
			save(t, Notes, note)
			save(t, Notes, NewNote())

			found := collect(t, subject.Get(t).FindBy(ctx, Notes, "author", authorID))
			t.Must.Equal(1, len(found))
			t.Must.Equal(authorID, found[0].(*Note).Author.ID)
		})

		s.Test("an unknown identifier yields nothing", func(t *testcase.T) {
			save(t, Notes, NewNote())
			_, ok, err := storages.FindByID(ctx, subject.Get(t), Notes, "404")
			t.Must.NoError(err)
			t.Must.False(ok)
		})
	})

	s.Describe("FindAll", func(s *testcase.Spec) {
		s.Test("nothing stored yields nothing", func(t *testcase.T) {
			t.Must.Empty(collect(t, subject.Get(t).FindAll(ctx, Notes)))
		})

		s.Test("every stored entity of the type is yielded", func(t *testcase.T) {
			n1, n2 := NewNote(), NewNote()
			save(t, Notes, n1)
			save(t, Notes, n2)
			save(t, Drafts, NewNote())

			found := collect(t, subject.Get(t).FindAll(ctx, Notes))
			t.Must.Equal(2, len(found))
			t.Must.Contain(found, entity.Entity(n1))
			t.Must.Contain(found, entity.Entity(n2))
		})
	})

	s.Describe("DeleteByID", func(s *testcase.Spec) {
		s.Test("the entity is no longer found", func(t *testcase.T) {
			keep, gone := NewNote(), NewNote()
			save(t, Notes, keep)
			id := save(t, Notes, gone)

			t.Must.NoError(subject.Get(t).DeleteByID(ctx, Notes, id))
			_, ok, err := storages.FindByID(ctx, subject.Get(t), Notes, id)
			t.Must.NoError(err)
			t.Must.False(ok)
			t.Must.Equal([]entity.Entity{keep}, collect(t, subject.Get(t).FindAll(ctx, Notes)))
		})

		s.Test("an unknown identifier is reported as missing record", func(t *testcase.T) {
			save(t, Notes, NewNote())
			err := subject.Get(t).DeleteByID(ctx, Notes, "404")
			t.Must.True(errors.Is(err, errs.ErrNoSuchRecord))
		})
	})
}
