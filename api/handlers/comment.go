package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medialibertaire/media-libertaire-api/api"
	"github.com/medialibertaire/media-libertaire-api/config"
	"github.com/medialibertaire/media-libertaire-api/databases"
	"github.com/medialibertaire/media-libertaire-api/models"
)

const commentsPerPage = 50

// Comment handles comment-related requests
type Comment struct {
	CDB databases.CommentDatabase
	ADB databases.ArticleDatabase
	UDB databases.UserDatabase
}

type commentRequest struct {
	Content string `json:"content"`
}

// CreateCommentHandler adds a comment to an article
func (c Comment) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("authentication required", http.StatusUnauthorized, w, fmt.Errorf("no authenticated user"))
		return
	}

	articleID := mux.Vars(r)["article_id"]
	aID, err := primitive.ObjectIDFromHex(articleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		config.ErrorStatus("comment content is required", http.StatusBadRequest, w, fmt.Errorf("empty content"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := c.ADB.FindOne(ctx, bson.M{"_id": aID}); err != nil {
		config.ErrorStatus("failed to get article by ID", http.StatusNotFound, w, err)
		return
	}

	authorName := "Anonyme"
	if uid, err := primitive.ObjectIDFromHex(author.ID); err == nil {
		if user, err := c.UDB.FindOne(ctx, bson.M{"_id": uid}); err == nil && user.DisplayName != "" {
			authorName = user.DisplayName
		}
	}

	comment := models.Comment{
		ID:         primitive.NewObjectID(),
		ArticleID:  articleID,
		Content:    req.Content,
		AuthorID:   author.ID,
		AuthorName: authorName,
		CreatedAt:  primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := c.CDB.InsertOne(ctx, comment); err != nil {
		config.ErrorStatus("failed to create comment", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(comment)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CommentsByArticleIDHandler lists an article's comments, newest first
func (c Comment) CommentsByArticleIDHandler(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["article_id"]
	if _, err := primitive.ObjectIDFromHex(articleID); err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	limit := getLimit(r, commentsPerPage)
	page := getPage(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	dbResp, err := c.CDB.Find(ctx, bson.M{"articleId": articleID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get comments", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Comment{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteCommentHandler removes a comment; only its author may do so
func (c Comment) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("authentication required", http.StatusUnauthorized, w, fmt.Errorf("no authenticated user"))
		return
	}

	commentID := mux.Vars(r)["comment_id"]
	cID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	comment, err := c.CDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get comment by ID", http.StatusNotFound, w, err)
		return
	}
	if comment.AuthorID != author.ID {
		config.ErrorStatus("not the comment author", http.StatusForbidden, w, fmt.Errorf("user %s is not author of %s", author.ID, commentID))
		return
	}

	if _, err := c.CDB.DeleteOne(ctx, bson.M{"_id": cID}); err != nil {
		config.ErrorStatus("failed to delete comment", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "comment deleted"}`))
}
