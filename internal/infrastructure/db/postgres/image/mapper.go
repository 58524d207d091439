package image

import (
	domain "gallery-api/internal/domain/image"
)

func fromDBModel(model *Image) *domain.Image {
	var img = &domain.Image{
		UUID:     model.UUID,
		UserUUID: model.UserUUID,

		URLs:     model.URLs,
		Keys:     model.Keys,
		Title:    model.Title,
		Size:     model.SizeBytes,
		MimeType: model.MimeType,

		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if img.Keys == nil {
		img.Keys = []string{}
	}

	return img
}

func fromDBModels(models Images) domain.Images {
	imgs := make(domain.Images, len(models))
	for idx, m := range models {
		imgs[idx] = fromDBModel(m)
	}

	return imgs
}
