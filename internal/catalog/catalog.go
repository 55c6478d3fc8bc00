// Package catalog holds the demo entities served by the persistroute command.
package catalog

import (
	"time"

	"github.com/adamluzsi/persistroute/entity"
)

type Category struct {
	ID    string
	Title string `persist:"title"`
}

type Product struct {
	ID       string
	Name     string    `persist:"name"`
	Price    float64   `persist:"price"`
	Stock    int       `persist:"stock"`
	Active   bool      `persist:"active"`
	Image    string    `persist:"image"`
	Category *Category `persist:"category,ref=category"`
}

type Article struct {
	ID        string
	Title     string    `persist:"title"`
	Body      string    `persist:"body"`
	Published time.Time `persist:"published"`
	Category  *Category `persist:"category,ref=category"`
}

func Registry() (*entity.Registry, error) {
	categories, err := entity.Reflect[Category]("category")
	if err != nil {
		return nil, err
	}
	products, err := entity.Reflect[Product]("product")
	if err != nil {
		return nil, err
	}
	articles, err := entity.Reflect[Article]("article")
	if err != nil {
		return nil, err
	}
	return entity.NewRegistry(categories, products, articles)
}
