package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Article represents a published community article
type Article struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title      string             `bson:"title" json:"title"`
	Content    string             `bson:"content" json:"content"`
	AuthorID   string             `bson:"authorId" json:"authorId"`
	AuthorName string             `bson:"authorName" json:"authorName"`
	CreatedAt  primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt  primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
	Votes      int                `bson:"votes" json:"votes"`
	Tags       []string           `bson:"tags" json:"tags"`
	ImageURL   string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	IsHidden   bool               `bson:"isHidden" json:"isHidden"`
}
