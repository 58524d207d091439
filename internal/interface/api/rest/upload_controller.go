package rest

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	domain "gallery-api/internal/domain/image"
	"gallery-api/internal/interface/api/rest/dto/image"
	"gallery-api/internal/interface/api/rest/response"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

func (ic *ImageController) UploadHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, domain.MaxSizeBytes+uploadOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, "file size exceeds maximum limit of 10MB", nil)
			return
		}
		response.Fail(c, http.StatusBadRequest, "file is required", map[string]string{"file": "is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "file is unreadable", nil)
		return
	}
	defer f.Close()

	// trust the bytes, not the client's Content-Type
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "file is unreadable", nil)
		return
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		response.Fail(c, http.StatusBadRequest, "file is unreadable", nil)
		return
	}
	mimeType, _, err := mime.ParseMediaType(mt.String())
	if err != nil {
		mimeType = mt.String()
	}

	up, err := ic.imageService.Upload(c.Request.Context(), caller.ID, domain.UploadInput{
		FileName: fh.Filename,
		MimeType: mimeType,
		Size:     fh.Size,
	}, f)
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusCreated, image.ToUploaded(*up))
}
