package actions_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/adamluzsi/persistroute/actions"
	"github.com/adamluzsi/persistroute/capture"
	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/pkg/logger"
	"github.com/adamluzsi/persistroute/requests"
	"github.com/adamluzsi/persistroute/storages"
	"github.com/adamluzsi/persistroute/storages/memorystorage"
	"github.com/adamluzsi/persistroute/storages/storagemock"
	"github.com/adamluzsi/persistroute/upload"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/julienschmidt/httprouter"
	"go.llib.dev/testcase"
)

type Category struct {
	ID    string
	Title string
}

type Product struct {
	ID       string
	Name     string
	Price    float64
	Image    string
	Category *Category `persist:"category"`
}

type Article struct {
	ID    string
	Title string
}

var (
	products   = entity.MustReflect[Product]("product")
	categories = entity.MustReflect[Category]("category")
	articles   = entity.MustReflect[Article]("article")
)

func TestDispatcher_Dispatch(t *testing.T) {
	s := testcase.NewSpec(t)
	s.Before(func(t *testcase.T) { logger.Stub(t) })

	var (
		ctx      = context.Background()
		store    = testcase.Let(s, func(t *testcase.T) storages.Store { return memorystorage.NewMemory() })
		registry = testcase.Let(s, func(t *testcase.T) *entity.Registry {
			r, err := entity.NewRegistry(products, categories, articles)
			t.Must.NoError(err)
			return r
		})
		uploadDir  = testcase.Let(s, func(t *testcase.T) string { return t.TempDir() })
		dispatcher = testcase.Let(s, func(t *testcase.T) *actions.Dispatcher {
			return &actions.Dispatcher{
				Store:     store.Get(t),
				Registry:  registry.Get(t),
				Relocator: &upload.Relocator{Directory: uploadDir.Get(t), RelativePrefix: "media"},
			}
		})
		form        = testcase.Let(s, func(t *testcase.T) url.Values { return url.Values{} })
		attachments = testcase.Let(s, func(t *testcase.T) []upload.Attachment { return nil })
		request     = testcase.Let(s, func(t *testcase.T) *requests.Basic {
			return requests.New(ctx, form.Get(t), attachments.Get(t)...)
		})
		captures = testcase.Let(s, func(t *testcase.T) capture.Map { return capture.Map{} })
	)
	act := func(t *testcase.T) error {
		return dispatcher.Get(t).Dispatch(ctx, request.Get(t), captures.Get(t))
	}
	bag := func(t *testcase.T, key string) any {
		v, ok := request.Get(t).Bag().Lookup(key)
		t.Must.True(ok)
		return v
	}
	seed := func(t *testcase.T, d entity.Descriptor, ent entity.Entity) {
		t.Must.NoError(store.Get(t).Save(ctx, d, ent))
	}

	s.Describe("display", func(s *testcase.Spec) {
		s.When("the route captures an identifier of a missing record", func(s *testcase.Spec) {
			captures.Let(s, func(t *testcase.T) capture.Map {
				router := httprouter.New()
				router.GET("/products/:entity/:ID/:action/detail.html", func(http.ResponseWriter, *http.Request, httprouter.Params) {})
				_, ps, _ := router.Lookup(http.MethodGet, "/products/article/12/DISPLAY/detail.html")
				maps, err := capture.Resolve(capture.Params(ps), []capture.Collection{{
					capture.Required("entity", "entity"),
					capture.Required("ID", "ID"),
					capture.Required("action", "action"),
				}})
				t.Must.NoError(err)
				t.Must.Equal(capture.Map{"entity": "article", "ID": "12", "action": "DISPLAY"}, maps[0])
				return maps[0]
			})

			s.Then("it fails with no such record", func(t *testcase.T) {
				err := act(t)
				t.Must.True(errors.Is(err, errs.ErrNoSuchRecord))
				var nsr errs.NoSuchRecord
				t.Must.True(errors.As(err, &nsr))
				t.Must.Equal("12", nsr.ID)
				t.Must.Equal("article", nsr.Entity)
			})
		})

		s.When("the record exists", func(s *testcase.Spec) {
			article := testcase.Let(s, func(t *testcase.T) *Article {
				a := &Article{Title: t.Random.String()}
				seed(t, articles, a)
				return a
			})
			captures.Let(s, func(t *testcase.T) capture.Map {
				return capture.Map{"entity": "article", "ID": article.Get(t).ID}
			})

			s.Then("its flat form is put in the bag under the entity name", func(t *testcase.T) {
				t.Must.NoError(act(t))
				t.Must.Equal(map[string]string{
					"id":    article.Get(t).ID,
					"title": article.Get(t).Title,
				}, bag(t, "article"))
			})
		})

		s.When("no identifier is captured", func(s *testcase.Spec) {
			captures.Let(s, func(t *testcase.T) capture.Map { return capture.Map{"entity": "article"} })
			s.Before(func(t *testcase.T) {
				seed(t, articles, &Article{Title: "first"})
				seed(t, articles, &Article{Title: "second"})
			})

			s.Then("the whole collection is listed", func(t *testcase.T) {
				t.Must.NoError(act(t))
				list := bag(t, "articleList").([]map[string]string)
				t.Must.Equal(2, len(list))
				t.Must.Equal("first", list[0]["title"])
				t.Must.Equal("second", list[1]["title"])
			})
		})

		s.When("the entity is not registered", func(s *testcase.Spec) {
			captures.Let(s, func(t *testcase.T) capture.Map { return capture.Map{"entity": "invoice"} })

			s.Then("it fails with unsupported entity", func(t *testcase.T) {
				t.Must.True(errors.Is(act(t), errs.ErrUnsupportedEntity))
			})
		})

		s.When("the entity is neither fixed nor captured", func(s *testcase.Spec) {
			s.Then("the missing capture is reported", func(t *testcase.T) {
				t.Must.True(errors.Is(act(t), errs.ErrMissingCaptureParameter))
			})
		})

		s.When("the store fails", func(s *testcase.Spec) {
			expected := errors.New("connection lost")
			store.Let(s, func(t *testcase.T) storages.Store {
				m := storagemock.NewMockStore(gomock.NewController(t))
				m.EXPECT().FindAll(gomock.Any(), articles).Return(iterators.Error[entity.Entity](expected))
				return m
			})
			captures.Let(s, func(t *testcase.T) capture.Map { return capture.Map{"entity": "article"} })

			s.Then("it fails with a store error", func(t *testcase.T) {
				err := act(t)
				t.Must.True(errors.Is(err, errs.ErrStore))
				t.Must.True(errors.Is(err, expected))
			})
		})
	})

	s.Describe("insert", func(s *testcase.Spec) {
		captures.Let(s, func(t *testcase.T) capture.Map {
			return capture.Map{"entity": "product", "action": "insert"}
		})
		form.Let(s, func(t *testcase.T) url.Values {
			return url.Values{
				"product.name":  {"Widget"},
				"product.price": {"9.99"},
				"article.title": {"ignored"},
				"action":        {"insert"},
			}
		})

		s.Then("the entity prefixed fields are persisted and flattened into the bag", func(t *testcase.T) {
			t.Must.NoError(act(t))
			flat := bag(t, "product").(map[string]string)
			t.Must.Equal("Widget", flat["name"])
			t.Must.Equal("9.99", flat["price"])
			t.Must.True(flat["id"] != "")

			stored, found, err := storages.FindByID(ctx, store.Get(t), products, flat["id"])
			t.Must.NoError(err)
			t.Must.True(found)
			t.Must.Equal("Widget", stored.(*Product).Name)
			t.Must.Equal(9.99, stored.(*Product).Price)
		})

		s.When("the entity is fixed by the route", func(s *testcase.Spec) {
			captures.Let(s, func(t *testcase.T) capture.Map { return capture.Map{"action": "INSERT"} })
			dispatcher.Let(s, func(t *testcase.T) *actions.Dispatcher {
				return &actions.Dispatcher{Store: store.Get(t), Registry: registry.Get(t), Entity: "product"}
			})

			s.Then("the captures do not need to name it", func(t *testcase.T) {
				t.Must.NoError(act(t))
				t.Must.Equal("Widget", bag(t, "product").(map[string]string)["name"])
			})
		})

		s.When("the request references a stored entity", func(s *testcase.Spec) {
			category := testcase.Let(s, func(t *testcase.T) *Category {
				c := &Category{Title: "tools"}
				seed(t, categories, c)
				return c
			})
			form.Let(s, func(t *testcase.T) url.Values {
				return url.Values{"product.name": {"Hammer"}, "product.category": {category.Get(t).ID}}
			})

			s.Then("the reference is resolved through the store", func(t *testcase.T) {
				t.Must.NoError(act(t))
				flat := bag(t, "product").(map[string]string)
				stored, _, err := storages.FindByID(ctx, store.Get(t), products, flat["id"])
				t.Must.NoError(err)
				t.Must.Equal(category.Get(t), stored.(*Product).Category)
				t.Must.Equal(category.Get(t).ID, flat["category"])
			})
		})

		s.When("the referenced entity is missing", func(s *testcase.Spec) {
			form.Let(s, func(t *testcase.T) url.Values {
				return url.Values{"product.name": {"Hammer"}, "product.category": {"404"}}
			})

			s.Then("nothing is persisted", func(t *testcase.T) {
				err := act(t)
				t.Must.True(errors.Is(err, errs.ErrObjectReferenceResolution))
				all, err := iterators.Collect(store.Get(t).FindAll(ctx, products))
				t.Must.NoError(err)
				t.Must.Empty(all)
			})
		})

		s.When("the form carries the identifier of a stored record", func(s *testcase.Spec) {
			existing := testcase.Let(s, func(t *testcase.T) *Product {
				p := &Product{Name: "Original", Price: 1}
				seed(t, products, p)
				return p
			})
			form.Let(s, func(t *testcase.T) url.Values {
				return url.Values{"product.id": {existing.Get(t).ID}, "product.name": {"Hijacked"}}
			})

			s.Then("a new record is created and the stored one is left untouched", func(t *testcase.T) {
				t.Must.NoError(act(t))
				flat := bag(t, "product").(map[string]string)
				t.Must.True(flat["id"] != existing.Get(t).ID)

				stored, found, err := storages.FindByID(ctx, store.Get(t), products, existing.Get(t).ID)
				t.Must.NoError(err)
				t.Must.True(found)
				t.Must.Equal("Original", stored.(*Product).Name)

				all, err := iterators.Collect(store.Get(t).FindAll(ctx, products))
				t.Must.NoError(err)
				t.Must.Equal(2, len(all))
			})
		})

		s.When("a field can't be converted", func(s *testcase.Spec) {
			form.Let(s, func(t *testcase.T) url.Values {
				return url.Values{"product.price": {"cheap"}}
			})

			s.Then("it fails with field conversion", func(t *testcase.T) {
				t.Must.True(errors.Is(act(t), errs.ErrFieldConversion))
			})
		})

		s.When("a file is attached to an entity field", func(s *testcase.Spec) {
			attachments.Let(s, func(t *testcase.T) []upload.Attachment {
				tmp := filepath.Join(t.TempDir(), "upload")
				t.Must.NoError(os.WriteFile(tmp, []byte("png"), 0644))
				return []upload.Attachment{{Field: "product.image", FileName: "my photo.png", TempPath: tmp}}
			})

			s.Then("the file is relocated and the field holds its relative path", func(t *testcase.T) {
				t.Must.NoError(act(t))
				t.Must.Equal("media/my_photo.png", bag(t, "product").(map[string]string)["image"])
				_, err := os.Stat(filepath.Join(uploadDir.Get(t), "my_photo.png"))
				t.Must.NoError(err)
			})

			s.And("the entity can't be saved", func(s *testcase.Spec) {
				form.Let(s, func(t *testcase.T) url.Values {
					return url.Values{"product.name": {"Hammer"}, "product.category": {"404"}}
				})

				s.Then("the relocated file is removed", func(t *testcase.T) {
					t.Must.True(errors.Is(act(t), errs.ErrObjectReferenceResolution))
					entries, err := os.ReadDir(uploadDir.Get(t))
					t.Must.NoError(err)
					t.Must.Empty(entries)
				})
			})

			s.And("the attachment has no file name", func(s *testcase.Spec) {
				attachments.Let(s, func(t *testcase.T) []upload.Attachment {
					return []upload.Attachment{{Field: "product.image"}}
				})

				s.Then("it fails with missing file name", func(t *testcase.T) {
					t.Must.True(errors.Is(act(t), errs.ErrMissingFileName))
				})
			})
		})

		s.When("the store fails to save", func(s *testcase.Spec) {
			expected := errors.New("disk full")
			store.Let(s, func(t *testcase.T) storages.Store {
				m := storagemock.NewMockStore(gomock.NewController(t))
				m.EXPECT().Save(gomock.Any(), products, gomock.Any()).Return(expected)
				return m
			})

			s.Then("it fails with a store error", func(t *testcase.T) {
				err := act(t)
				t.Must.True(errors.Is(err, errs.ErrStore))
				t.Must.True(errors.Is(err, expected))
				var se errs.Store
				t.Must.True(errors.As(err, &se))
				t.Must.Equal("save", se.Op)
			})
		})
	})

	s.Describe("update", func(s *testcase.Spec) {
		existing := testcase.Let(s, func(t *testcase.T) *Product {
			p := &Product{Name: "Old", Price: 1}
			seed(t, products, p)
			return p
		})
		captures.Let(s, func(t *testcase.T) capture.Map {
			return capture.Map{"entity": "product", "action": "update", "ID": existing.Get(t).ID}
		})
		form.Let(s, func(t *testcase.T) url.Values {
			return url.Values{"product.name": {"New"}, "product.price": {"2.5"}, "product.id": {"forged"}}
		})

		s.Then("the captured identifier targets the existing record", func(t *testcase.T) {
			t.Must.NoError(act(t))
			stored, found, err := storages.FindByID(ctx, store.Get(t), products, existing.Get(t).ID)
			t.Must.NoError(err)
			t.Must.True(found)
			t.Must.Equal("New", stored.(*Product).Name)

			all, err := iterators.Collect(store.Get(t).FindAll(ctx, products))
			t.Must.NoError(err)
			t.Must.Equal(1, len(all))

			expected := map[string]string{
				"id": existing.Get(t).ID, "name": "New", "price": "2.5", "image": "", "category": "",
			}
			if diff := cmp.Diff(expected, bag(t, "product")); diff != "" {
				t.Fatalf("unexpected bag content (-want +got):\n%s", diff)
			}
		})

		s.When("the record does not exist", func(s *testcase.Spec) {
			captures.Let(s, func(t *testcase.T) capture.Map {
				return capture.Map{"entity": "product", "action": "update", "ID": "404"}
			})

			s.Then("it fails with no such record", func(t *testcase.T) {
				t.Must.True(errors.Is(act(t), errs.ErrNoSuchRecord))
			})
		})

		s.When("no identifier is captured", func(s *testcase.Spec) {
			captures.Let(s, func(t *testcase.T) capture.Map {
				return capture.Map{"entity": "product", "action": "update"}
			})

			s.Then("the missing capture is reported", func(t *testcase.T) {
				t.Must.True(errors.Is(act(t), errs.ErrMissingCaptureParameter))
			})
		})
	})

	s.Describe("delete", func(s *testcase.Spec) {
		existing := testcase.Let(s, func(t *testcase.T) *Article {
			a := &Article{Title: "bye"}
			seed(t, articles, a)
			return a
		})
		captures.Let(s, func(t *testcase.T) capture.Map {
			return capture.Map{"entity": "article", "action": "delete", "ID": existing.Get(t).ID}
		})

		s.Then("the record is removed and its last state is in the bag", func(t *testcase.T) {
			t.Must.NoError(act(t))
			_, found, err := storages.FindByID(ctx, store.Get(t), articles, existing.Get(t).ID)
			t.Must.NoError(err)
			t.Must.False(found)
			t.Must.Equal("bye", bag(t, "article").(map[string]string)["title"])
		})

		s.When("the record does not exist", func(s *testcase.Spec) {
			captures.Let(s, func(t *testcase.T) capture.Map {
				return capture.Map{"entity": "article", "action": "delete", "ID": "404"}
			})

			s.Then("it fails with no such record", func(t *testcase.T) {
				t.Must.True(errors.Is(act(t), errs.ErrNoSuchRecord))
			})
		})
	})

	s.Describe("none", func(s *testcase.Spec) {
		captures.Let(s, func(t *testcase.T) capture.Map {
			return capture.Map{"entity": "invoice", "action": "none"}
		})
		store.Let(s, func(t *testcase.T) storages.Store {
			return storagemock.NewMockStore(gomock.NewController(t))
		})

		s.Then("nothing happens", func(t *testcase.T) {
			t.Must.NoError(act(t))
			t.Must.Empty(request.Get(t).Bag().Values())
		})
	})

	s.Describe("unsupported action", func(s *testcase.Spec) {
		captures.Let(s, func(t *testcase.T) capture.Map {
			return capture.Map{"entity": "product", "action": "publish"}
		})

		s.Then("it fails with unsupported action", func(t *testcase.T) {
			t.Must.True(errors.Is(act(t), errs.ErrUnsupportedAction))
		})
	})

	s.Describe("custom reserved keys", func(s *testcase.Spec) {
		dispatcher.Let(s, func(t *testcase.T) *actions.Dispatcher {
			return &actions.Dispatcher{
				Store:    store.Get(t),
				Registry: registry.Get(t),
				Keys:     actions.Keys{Action: "verb", Entity: "kind", ID: "key"},
			}
		})
		captures.Let(s, func(t *testcase.T) capture.Map {
			return capture.Map{"kind": "article", "verb": "display", "key": "12"}
		})

		s.Then("they are used to read the captures", func(t *testcase.T) {
			t.Must.True(errors.Is(act(t), errs.ErrNoSuchRecord))
		})
	})
}
