package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User represents a registered account
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	DisplayName string             `bson:"displayName" json:"displayName"`
	Bio         string             `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoURL    string             `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Reputation  int                `bson:"reputation" json:"reputation"`
	IsTrusted   bool               `bson:"isTrusted" json:"isTrusted"`
	CreatedAt   primitive.DateTime `bson:"createdAt" json:"createdAt"`
}

// PublicProfile strips the fields that never leave the server
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Reputation  int    `json:"reputation"`
	IsTrusted   bool   `json:"isTrusted"`
}

// Public returns the externally visible view of the user
func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID.Hex(),
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		PhotoURL:    u.PhotoURL,
		Reputation:  u.Reputation,
		IsTrusted:   u.IsTrusted,
	}
}
