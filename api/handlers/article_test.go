package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medialibertaire/media-libertaire-api/api/handlers"
	"github.com/medialibertaire/media-libertaire-api/databases"
	"github.com/medialibertaire/media-libertaire-api/databases/mocks"
	"github.com/medialibertaire/media-libertaire-api/models"
)

func newArticleHandler(db databases.DatabaseHelper) handlers.Article {
	return handlers.Article{
		ADB: databases.NewArticleDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}
}

func TestArticle_ArticleByIDHandlerInvalidID(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/article/1234", nil)
	req = mux.SetURLVars(req, map[string]string{"article_id": "1234"})

	db := &mocks.DatabaseHelper{}
	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ArticleByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get objectID from Hex", Error: "the provided hex string is not a valid ObjectID"}}
	b, _ := json.Marshal(expected)
	assert.JSONEq(t, string(b), rr.Body.String())
}

func TestArticle_ArticleByIDHandlerNotFound(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/article/"+testArticleID, nil)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ArticleByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestArticle_ArticleByIDHandlerSuccess(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/article/"+testArticleID, nil)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Article)
		(*arg).Title = "La commune au quotidien"
		(*arg).IsHidden = true
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ArticleByIDHandler).ServeHTTP(rr, req)

	// hidden articles stay fetchable by id
	assert.Equal(t, http.StatusOK, rr.Code)

	var article models.Article
	err := json.Unmarshal(rr.Body.Bytes(), &article)
	assert.NoError(t, err)
	assert.Equal(t, "La commune au quotidien", article.Title)
	assert.True(t, article.IsHidden)
}

func TestArticle_CreateArticleHandlerUnauthenticated(t *testing.T) {
	req, _ := http.NewRequest("POST", "/api/v1/article", nil)

	db := &mocks.DatabaseHelper{}
	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestArticle_CreateArticleHandlerEmptyTitle(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"title": "  ", "content": "du contenu"})
	req := authedRequest("POST", "/api/v1/article", body, testVoterID)

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	db.On("Collection", mock.Anything).Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestArticle_CreateArticleHandlerSuccess(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"title":   "Contre l'enclosure numérique",
		"content": "Un long développement.",
		"tags":    []string{"technologie"},
	})
	req := authedRequest("POST", "/api/v1/article", body, testVoterID)

	db := &mocks.DatabaseHelper{}
	usersConn := &mocks.CollectionHelper{}
	articlesConn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).DisplayName = "Émile"
	})
	usersConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	articlesConn.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	db.On("Collection", "users").Return(usersConn)
	db.On("Collection", "articles").Return(articlesConn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var article models.Article
	err := json.Unmarshal(rr.Body.Bytes(), &article)
	assert.NoError(t, err)
	assert.Equal(t, "Émile", article.AuthorName)
	assert.Equal(t, testVoterID, article.AuthorID)
	assert.False(t, article.IsHidden)
	assert.Zero(t, article.Votes)
}

func TestArticle_UpdateArticleHandlerForbiddenForNonAuthor(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"title": "nouveau titre", "content": "nouveau contenu"})
	req := authedRequest("PUT", "/api/v1/article/"+testArticleID, body, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Article)
		(*arg).AuthorID = "someone-else"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestArticle_DeleteArticleHandlerSuccess(t *testing.T) {
	req := authedRequest("DELETE", "/api/v1/article/"+testArticleID, nil, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Article)
		(*arg).AuthorID = testVoterID
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	conn.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestArticle_VoteArticleHandlerInvalidValue(t *testing.T) {
	body, _ := json.Marshal(map[string]int{"value": 5})
	req := authedRequest("POST", "/api/v1/article/"+testArticleID+"/vote", body, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.VoteArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestArticle_VoteArticleHandlerNotFound(t *testing.T) {
	body, _ := json.Marshal(map[string]int{"value": 1})
	req := authedRequest("POST", "/api/v1/article/"+testArticleID+"/vote", body, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.VoteArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestArticle_VoteArticleHandlerSuccess(t *testing.T) {
	body, _ := json.Marshal(map[string]int{"value": -1})
	req := authedRequest("POST", "/api/v1/article/"+testArticleID+"/vote", body, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Article)
		(*arg).Votes = 7
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.VoteArticleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var article models.Article
	err := json.Unmarshal(rr.Body.Bytes(), &article)
	assert.NoError(t, err)
	assert.Equal(t, 7, article.Votes)
}

func TestArticle_ArticlesHandlerEmpty(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/articles", nil)

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", mock.Anything, mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ArticlesHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestArticle_ArticleSearchHandlerMissingTerm(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/articles/search", nil)

	db := &mocks.DatabaseHelper{}
	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ArticleSearchHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestArticle_ArticleSearchHandlerSuccess(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/articles/search?title=greve", nil)

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Article)
		*arg = []models.Article{{Title: "Grève générale"}}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "articles").Return(conn)

	u := newArticleHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ArticleSearchHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var articles []models.Article
	err := json.Unmarshal(rr.Body.Bytes(), &articles)
	assert.NoError(t, err)
	assert.Len(t, articles, 1)
}
