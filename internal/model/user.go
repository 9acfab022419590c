package model

import "time"

type User struct {
	UserID                 string    `json:"userId" bson:"userId"`
	FirstName              string    `json:"firstName" bson:"firstName"`
	LastName               string    `json:"lastName" bson:"lastName"`
	Email                  string    `json:"email" bson:"email"`
	MobileNumber           string    `json:"mobileNumber" bson:"mobileNumber"`
	Country                string    `json:"country" bson:"country"`
	PasswordHash           string    `json:"-" bson:"password"`
	UserVerificationStatus bool      `json:"userVerificationStatus" bson:"userVerificationStatus"`
	TokenVersion           int64     `json:"-" bson:"tokenVersion"`
	Deleted                bool      `json:"-" bson:"deleted"`
	CreatedOn              time.Time `json:"createdOn" bson:"createdOn"`
	ModifiedOn             time.Time `json:"modifiedOn" bson:"modifiedOn"`
}

// UserDetails is the projection of a user that leaves the service.
type UserDetails struct {
	UserID                 string    `json:"userId"`
	FirstName              string    `json:"firstName"`
	LastName               string    `json:"lastName"`
	Email                  string    `json:"email"`
	MobileNumber           string    `json:"mobileNumber"`
	Country                string    `json:"country"`
	UserVerificationStatus bool      `json:"userVerificationStatus"`
	CreatedOn              time.Time `json:"createdOn"`
	ModifiedOn             time.Time `json:"modifiedOn"`
}

func (u *User) Details() UserDetails {
	return UserDetails{
		UserID:                 u.UserID,
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		Email:                  u.Email,
		MobileNumber:           u.MobileNumber,
		Country:                u.Country,
		UserVerificationStatus: u.UserVerificationStatus,
		CreatedOn:              u.CreatedOn,
		ModifiedOn:             u.ModifiedOn,
	}
}

// UserProfileUpdate carries the editable profile fields. Nil fields are left
// untouched.
type UserProfileUpdate struct {
	FirstName    *string
	LastName     *string
	MobileNumber *string
	Country      *string
}

func (u UserProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.MobileNumber == nil && u.Country == nil
}
