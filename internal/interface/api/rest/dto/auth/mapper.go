package auth

import (
	"gallery-api/internal/domain/user"
)

func ToResponseUser(uDomain user.User) User {
	return User{
		ID:        uDomain.UUID,
		Username:  uDomain.Username,
		Email:     uDomain.Email,
		CreatedAt: uDomain.CreatedAt,
		UpdatedAt: uDomain.UpdatedAt,
	}
}

func ToSession(uDomain user.User, token string) Session {
	return Session{User: ToResponseUser(uDomain), Token: token}
}

func ToDeleted(d user.Deletion) Deleted {
	return Deleted{
		User:          ToResponseUser(*d.User),
		ImagesDeleted: d.ImagesDeleted,
		StorageErrors: d.StorageErrors,
	}
}
