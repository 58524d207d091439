package image

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"gallery-api/internal/apperr"
)

var (
	ErrImageNotFound = apperr.NotFound("image not found")
	ErrNotOwner      = apperr.Forbidden("you do not own this resource")
)

// Authorize checks that callerID owns img. It must run after the image was
// loaded and before any mutation.
func Authorize(img *Image, callerID uuid.UUID) error {
	if img == nil {
		return ErrImageNotFound
	}
	if img.UserUUID != callerID {
		return ErrNotOwner
	}
	return nil
}

// ParseID turns a path id into a UUID. A malformed id is reported as not
// found: callers cannot tell it apart from an id that never existed.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrImageNotFound
	}
	return id, nil
}

func NormalizeTitle(title string) string { return strings.TrimSpace(title) }

func ValidateTitle(title string) error {
	l := utf8.RuneCountInString(title)
	if l < MinTitleLen || l > MaxTitleLen {
		return apperr.Validation(
			fmt.Sprintf("title must be %d-%d characters", MinTitleLen, MaxTitleLen),
			map[string]string{"title": "invalid length"},
		)
	}
	return nil
}

func IsAllowedMime(mimeType string) bool {
	return slices.Contains(AllowedMimeTypes, mimeType)
}

// IsValidURL accepts absolute http(s) URLs with a host.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Validate enforces the creation invariants on a normalized image.
func Validate(img *Image) error {
	missing := map[string]string{}
	if len(img.URLs) == 0 {
		missing["url"] = "missing"
	}
	if img.Title == "" {
		missing["title"] = "missing"
	}
	if img.UserUUID == uuid.Nil {
		missing["userId"] = "missing"
	}
	if img.Size <= 0 {
		missing["size"] = "missing"
	}
	if img.MimeType == "" {
		missing["mimeType"] = "missing"
	}
	if len(missing) > 0 {
		return apperr.Validation("a required field is missing", map[string]any{"fields": missing})
	}

	if len(img.URLs) > MaxURLs {
		return apperr.Validation(fmt.Sprintf("maximum of %d URLs allowed per image", MaxURLs), nil)
	}
	for _, u := range img.URLs {
		if !IsValidURL(u) {
			return apperr.Validation("one or more URLs have an invalid format", nil)
		}
	}
	if len(img.Keys) > 0 {
		if len(img.Keys) != len(img.URLs) {
			return apperr.Validation("keys must match urls one to one", nil)
		}
		for _, k := range img.Keys {
			if strings.TrimSpace(k) == "" {
				return apperr.Validation("keys must not be blank", nil)
			}
		}
	}
	if err := ValidateTitle(img.Title); err != nil {
		return err
	}
	if img.Size > MaxSizeBytes {
		return apperr.Validation("file size exceeds maximum limit of 10MB", nil)
	}
	if !IsAllowedMime(img.MimeType) {
		return apperr.Validation(
			"invalid file type. Allowed types: "+strings.Join(AllowedMimeTypes, ", "),
			nil,
		)
	}

	return nil
}

// ValidateAppend checks that a variant can be appended to img. Images that
// track keys need a key for every URL; images without keys take none.
func ValidateAppend(img *Image, rawURL, key string) error {
	if !IsValidURL(rawURL) {
		return apperr.Validation("url has an invalid format", nil)
	}
	if len(img.URLs) >= MaxURLs {
		return apperr.Validation(fmt.Sprintf("maximum of %d URLs allowed per image", MaxURLs), nil)
	}
	switch {
	case img.HasKeys() && strings.TrimSpace(key) == "":
		return apperr.Validation("key is required for images with storage keys", nil)
	case !img.HasKeys() && key != "":
		return apperr.Validation("image does not track storage keys", nil)
	}
	return nil
}
