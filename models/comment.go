package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Comment represents a reader comment attached to an article
type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ArticleID  string             `bson:"articleId" json:"articleId"`
	Content    string             `bson:"content" json:"content"`
	AuthorID   string             `bson:"authorId" json:"authorId"`
	AuthorName string             `bson:"authorName" json:"authorName"`
	CreatedAt  primitive.DateTime `bson:"createdAt" json:"createdAt"`
}
