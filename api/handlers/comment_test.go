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

	"github.com/medialibertaire/media-libertaire-api/api/handlers"
	"github.com/medialibertaire/media-libertaire-api/databases"
	"github.com/medialibertaire/media-libertaire-api/databases/mocks"
	"github.com/medialibertaire/media-libertaire-api/models"
)

const testCommentID = "608cafc295eb9dc05379b7f2"

func newCommentHandler(db databases.DatabaseHelper) handlers.Comment {
	return handlers.Comment{
		CDB: databases.NewCommentDatabase(db),
		ADB: databases.NewArticleDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}
}

func TestComment_CreateCommentHandlerUnauthenticated(t *testing.T) {
	req, _ := http.NewRequest("POST", "/api/v1/article/"+testArticleID+"/comment", nil)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	u := newCommentHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestComment_CreateCommentHandlerEmptyContent(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"content": "  "})
	req := authedRequest("POST", "/api/v1/article/"+testArticleID+"/comment", body, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	db.On("Collection", mock.Anything).Return(conn)

	u := newCommentHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestComment_CreateCommentHandlerUnknownArticle(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"content": "bien dit"})
	req := authedRequest("POST", "/api/v1/article/"+testArticleID+"/comment", body, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	articlesConn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	articlesConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "articles").Return(articlesConn)

	u := newCommentHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestComment_CreateCommentHandlerSuccess(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"content": "solidarité avec les grévistes"})
	req := authedRequest("POST", "/api/v1/article/"+testArticleID+"/comment", body, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	articlesConn := &mocks.CollectionHelper{}
	usersConn := &mocks.CollectionHelper{}
	commentsConn := &mocks.CollectionHelper{}
	articleResult := &mocks.SingleResultHelper{}
	userResult := &mocks.SingleResultHelper{}

	articleResult.On("Decode", mock.Anything).Return(nil)
	articlesConn.On("FindOne", mock.Anything, mock.Anything).Return(articleResult)
	userResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).DisplayName = "Nathalie"
	})
	usersConn.On("FindOne", mock.Anything, mock.Anything).Return(userResult)
	commentsConn.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	db.On("Collection", "articles").Return(articlesConn)
	db.On("Collection", "users").Return(usersConn)
	db.On("Collection", "comments").Return(commentsConn)

	u := newCommentHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var comment models.Comment
	err := json.Unmarshal(rr.Body.Bytes(), &comment)
	assert.NoError(t, err)
	assert.Equal(t, "Nathalie", comment.AuthorName)
	assert.Equal(t, testArticleID, comment.ArticleID)
}

func TestComment_CommentsByArticleIDHandlerEmpty(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/article/"+testArticleID+"/comments", nil)
	req = mux.SetURLVars(req, map[string]string{"article_id": testArticleID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", mock.Anything, mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "comments").Return(conn)

	u := newCommentHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CommentsByArticleIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestComment_DeleteCommentHandlerForbiddenForNonAuthor(t *testing.T) {
	req := authedRequest("DELETE", "/api/v1/comment/"+testCommentID, nil, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"comment_id": testCommentID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Comment)
		(*arg).AuthorID = "someone-else"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "comments").Return(conn)

	u := newCommentHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	conn.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestComment_DeleteCommentHandlerSuccess(t *testing.T) {
	req := authedRequest("DELETE", "/api/v1/comment/"+testCommentID, nil, testVoterID)
	req = mux.SetURLVars(req, map[string]string{"comment_id": testCommentID})

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Comment)
		(*arg).AuthorID = testVoterID
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "comments").Return(conn)

	u := newCommentHandler(db)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	conn.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}
