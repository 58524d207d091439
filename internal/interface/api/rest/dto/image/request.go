package image

type (
	CreateRequest struct {
		URL      []string `json:"url"`
		Keys     []string `json:"keys"`
		Title    string   `json:"title"`
		UserID   string   `json:"userId"`
		Size     int64    `json:"size"`
		MimeType string   `json:"mimeType"`
	}
	UpdateRequest struct {
		Title string `json:"title" binding:"required"`
	}
	AddURLRequest struct {
		URL string `json:"url" binding:"required"`
		Key string `json:"key"`
	}
	ListQuery struct {
		Page  int `form:"page" binding:"omitempty,min=1,max=10000"`
		Limit int `form:"limit" binding:"omitempty,min=1"`
	}
)
