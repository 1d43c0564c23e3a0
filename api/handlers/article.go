package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/medialibertaire/media-libertaire-api/api"
	"github.com/medialibertaire/media-libertaire-api/config"
	"github.com/medialibertaire/media-libertaire-api/databases"
	"github.com/medialibertaire/media-libertaire-api/models"
)

// articlesPerPage is the default page size for article listings
const articlesPerPage = 12

// Article handles article-related requests
type Article struct {
	ADB databases.ArticleDatabase
	UDB databases.UserDatabase
}

type articleRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	ImageURL string   `json:"imageUrl"`
}

type articleVoteRequest struct {
	Value int `json:"value"`
}

// CreateArticleHandler publishes a new article
func (a Article) CreateArticleHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("authentication required", http.StatusUnauthorized, w, fmt.Errorf("no authenticated user"))
		return
	}

	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		config.ErrorStatus("title and content are required", http.StatusBadRequest, w, fmt.Errorf("empty title or content"))
		return
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	authorName := "Anonyme"
	if uid, err := primitive.ObjectIDFromHex(author.ID); err == nil {
		if user, err := a.UDB.FindOne(ctx, bson.M{"_id": uid}); err == nil && user.DisplayName != "" {
			authorName = user.DisplayName
		}
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	article := models.Article{
		ID:         primitive.NewObjectID(),
		Title:      req.Title,
		Content:    req.Content,
		AuthorID:   author.ID,
		AuthorName: authorName,
		CreatedAt:  now,
		UpdatedAt:  now,
		Votes:      0,
		Tags:       req.Tags,
		ImageURL:   req.ImageURL,
		IsHidden:   false,
	}

	if _, err := a.ADB.InsertOne(ctx, article); err != nil {
		config.ErrorStatus("failed to create article", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(article)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ArticleByIDHandler returns an article by ID. Hidden articles stay directly
// addressable; only the listings exclude them.
func (a Article) ArticleByIDHandler(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["article_id"]

	zap.S().Debugf("article_id: %v", articleID)

	aID, err := primitive.ObjectIDFromHex(articleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := a.ADB.FindOne(ctx, bson.M{"_id": aID})
	if err != nil {
		config.ErrorStatus("failed to get article by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ArticlesHandler returns visible articles, paginated, sorted by recency or
// popularity, optionally filtered by tag
func (a Article) ArticlesHandler(w http.ResponseWriter, r *http.Request) {
	limit := getLimit(r, articlesPerPage)
	page := getPage(r)

	sortField := "createdAt"
	if r.URL.Query().Get("sort") == "popular" {
		sortField = "votes"
	}

	filter := bson.M{"isHidden": bson.M{"$ne": true}}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filter["tags"] = tag
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).
		SetSort(bson.D{{Key: sortField, Value: -1}})

	dbResp, err := a.ADB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get articles", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Article{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ArticleSearchHandler returns visible articles whose title starts with the
// given term, case-insensitive
func (a Article) ArticleSearchHandler(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("title"))
	if term == "" {
		config.ErrorStatus("search term is required", http.StatusBadRequest, w, fmt.Errorf("empty title param"))
		return
	}
	limit := getLimit(r, articlesPerPage)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, 0).
		SetSort(bson.D{{Key: "title", Value: 1}})

	dbResp, err := a.ADB.Find(ctx, bson.M{
		"title":    primitive.Regex{Pattern: "^" + regexp.QuoteMeta(term), Options: "i"},
		"isHidden": bson.M{"$ne": true},
	}, opts)
	if err != nil {
		config.ErrorStatus("failed to search articles", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Article{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ArticlesByUserIDHandler returns all articles written by the given author,
// including hidden ones so authors can see the state of their own work
func (a Article) ArticlesByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	limit := getLimit(r, articlesPerPage)
	page := getPage(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	dbResp, err := a.ADB.Find(ctx, bson.M{"authorId": userID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get articles by author", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Article{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateArticleHandler lets the author edit title, content, tags and image
func (a Article) UpdateArticleHandler(w http.ResponseWriter, r *http.Request) {
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

	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		config.ErrorStatus("title and content are required", http.StatusBadRequest, w, fmt.Errorf("empty title or content"))
		return
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	article, err := a.ADB.FindOne(ctx, bson.M{"_id": aID})
	if err != nil {
		config.ErrorStatus("failed to get article by ID", http.StatusNotFound, w, err)
		return
	}
	if article.AuthorID != author.ID {
		config.ErrorStatus("not the article author", http.StatusForbidden, w, fmt.Errorf("user %s is not author of %s", author.ID, articleID))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	if _, err := a.ADB.UpdateOne(ctx, bson.M{"_id": aID}, bson.M{"$set": bson.M{
		"title":     req.Title,
		"content":   req.Content,
		"tags":      req.Tags,
		"imageUrl":  req.ImageURL,
		"updatedAt": now,
	}}); err != nil {
		config.ErrorStatus("failed to update article", http.StatusInternalServerError, w, err)
		return
	}

	article.Title = req.Title
	article.Content = req.Content
	article.Tags = req.Tags
	article.ImageURL = req.ImageURL
	article.UpdatedAt = now

	b, err := json.Marshal(article)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteArticleHandler removes an article and, in the background, its
// Cloudinary image asset
func (a Article) DeleteArticleHandler(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	article, err := a.ADB.FindOne(ctx, bson.M{"_id": aID})
	if err != nil {
		config.ErrorStatus("failed to get article by ID", http.StatusNotFound, w, err)
		return
	}
	if article.AuthorID != author.ID {
		config.ErrorStatus("not the article author", http.StatusForbidden, w, fmt.Errorf("user %s is not author of %s", author.ID, articleID))
		return
	}

	if _, err := a.ADB.DeleteOne(ctx, bson.M{"_id": aID}); err != nil {
		config.ErrorStatus("failed to delete article", http.StatusInternalServerError, w, err)
		return
	}

	if article.ImageURL != "" {
		go destroyImageAsset(article.ImageURL)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "article deleted"}`))
}

// VoteArticleHandler applies a +1/-1 vote to an article's score
func (a Article) VoteArticleHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := api.AuthUserFromContext(r.Context()); !ok {
		config.ErrorStatus("authentication required", http.StatusUnauthorized, w, fmt.Errorf("no authenticated user"))
		return
	}

	articleID := mux.Vars(r)["article_id"]
	aID, err := primitive.ObjectIDFromHex(articleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req articleVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Value != 1 && req.Value != -1 {
		config.ErrorStatus("vote value must be 1 or -1", http.StatusBadRequest, w, fmt.Errorf("value %d", req.Value))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := a.ADB.UpdateOne(ctx, bson.M{"_id": aID}, bson.M{"$inc": bson.M{"votes": req.Value}})
	if err != nil {
		config.ErrorStatus("failed to vote on article", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("article not found", http.StatusNotFound, w, fmt.Errorf("no article with id %s", articleID))
		return
	}

	article, err := a.ADB.FindOne(ctx, bson.M{"_id": aID})
	if err != nil {
		config.ErrorStatus("failed to get article by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(article)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// destroyImageAsset best-effort deletes the Cloudinary asset referenced by a
// delivery URL. Failures only get logged; the article is already gone.
func destroyImageAsset(imageURL string) {
	publicID := publicIDFromURL(imageURL)
	if publicID == "" {
		zap.S().Warnw("could not derive public id from image url", "url", imageURL)
		return
	}

	cld, err := cloudinary.New()
	if err != nil {
		zap.S().Errorw("failed to init cloudinary client", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		zap.S().Errorw("failed to destroy image asset", "publicId", publicID, "error", err)
		return
	}
	zap.S().Infow("destroyed image asset", "publicId", publicID)
}

// publicIDFromURL extracts the Cloudinary public id from a delivery URL like
// https://res.cloudinary.com/<cloud>/image/upload/v123/folder/name.jpg
func publicIDFromURL(imageURL string) string {
	parts := strings.Split(imageURL, "/upload/")
	if len(parts) != 2 {
		return ""
	}
	path := parts[1]
	// strip the version segment
	if segs := strings.SplitN(path, "/", 2); len(segs) == 2 && strings.HasPrefix(segs[0], "v") {
		path = segs[1]
	}
	// strip the file extension
	if i := strings.LastIndex(path, "."); i > 0 {
		path = path[:i]
	}
	return path
}
