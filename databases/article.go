package databases

// go generate: mockery --name ArticleDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medialibertaire/media-libertaire-api/models"
)

const articleName = "articles"

// ArticleDatabase contains the methods to use with the article database
type ArticleDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Article, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Article, error)
	InsertOne(ctx context.Context, article models.Article) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type articleDatabase struct {
	db DatabaseHelper
}

// NewArticleDatabase initializes a new instance of article database with the provided db connection
func NewArticleDatabase(db DatabaseHelper) ArticleDatabase {
	return &articleDatabase{
		db: db,
	}
}

func (c *articleDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Article, error) {
	article := &models.Article{}
	err := c.db.Collection(articleName).FindOne(ctx, filter).Decode(&article)
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (c *articleDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Article, error) {
	cursor, err := c.db.Collection(articleName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var articles []models.Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *articleDatabase) InsertOne(ctx context.Context, article models.Article) (interface{}, error) {
	return c.db.Collection(articleName).InsertOne(ctx, article)
}

func (c *articleDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(articleName).UpdateOne(ctx, filter, update, opts...)
}

func (c *articleDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(articleName).DeleteOne(ctx, filter)
}

func (c *articleDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(articleName).CountDocuments(ctx, filter, opts...)
}
