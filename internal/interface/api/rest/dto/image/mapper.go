package image

import (
	"strings"

	"github.com/google/uuid"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/image"
)

func ToResponseImage(iDomain image.Image) Image {
	keys := iDomain.Keys
	if keys == nil {
		keys = []string{}
	}
	return Image{
		ID:        iDomain.UUID,
		URL:       iDomain.URLs,
		Keys:      keys,
		Title:     iDomain.Title,
		UserID:    iDomain.UserUUID,
		Size:      iDomain.Size,
		MimeType:  iDomain.MimeType,
		CreatedAt: iDomain.CreatedAt,
		UpdatedAt: iDomain.UpdatedAt,
	}
}

func ToResponseImages(isDomain image.Images) Images {
	out := make(Images, len(isDomain))
	for idx, i := range isDomain {
		out[idx] = ToResponseImage(*i)
	}
	return out
}

func ToList(p image.Page) List {
	return List{
		Images: ToResponseImages(p.Images),
		Pagination: Pagination{
			Total: p.Total,
			Page:  p.Page,
			Limit: p.Limit,
			Pages: p.Pages,
		},
	}
}

func ToUploaded(u image.Upload) Uploaded {
	return Uploaded{URL: u.URL, Key: u.Key, Size: u.Size, MimeType: u.MimeType}
}

// ToDomainImage builds the image to create. The owner defaults to the caller;
// a userId that is present must be a well-formed UUID.
func ToDomainImage(req CreateRequest, callerID uuid.UUID) (image.Image, error) {
	owner := callerID
	if s := strings.TrimSpace(req.UserID); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return image.Image{}, apperr.Validation("invalid user id", map[string]string{"userId": "must be a valid UUID"})
		}
		owner = id
	}

	urls := make([]string, 0, len(req.URL))
	for _, u := range req.URL {
		urls = append(urls, strings.TrimSpace(u))
	}
	keys := make([]string, 0, len(req.Keys))
	for _, k := range req.Keys {
		keys = append(keys, strings.TrimSpace(k))
	}

	return image.Image{
		UserUUID: owner,
		URLs:     urls,
		Keys:     keys,
		Title:    req.Title,
		Size:     req.Size,
		MimeType: req.MimeType,
	}, nil
}
