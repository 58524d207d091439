package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gallery-api/internal/application/ports"
	"gallery-api/internal/interface/api/rest/dto/image"
	"gallery-api/internal/interface/api/rest/middleware"
	"gallery-api/internal/interface/api/rest/response"
	"gallery-api/internal/interface/api/rest/validator"
)

const bgRemovalQueued = "queued"

type ImageController struct {
	imageService ports.ImageService
	logger       *zap.Logger
}

func NewImageController(
	r *gin.Engine,
	imageService ports.ImageService,
	logger *zap.Logger,
	authMW gin.HandlerFunc,
) *ImageController {
	ic := &ImageController{
		imageService: imageService,
		logger:       logger,
	}

	r.POST(RouteImages, authMW, ic.CreateImageHandler)
	r.POST(RouteImagesUpload, authMW, ic.UploadHandler)
	r.GET(RouteImagesMe, authMW, ic.ListMyImagesHandler)
	r.GET(RouteImage, authMW, ic.GetImageHandler)
	r.PUT(RouteImage, authMW, ic.UpdateImageHandler)
	r.DELETE(RouteImage, authMW, ic.DeleteImageHandler)
	r.PATCH(RouteImageAddURL, authMW, ic.AddURLHandler)
	r.POST(RouteImageRemoveBg, authMW, ic.RemoveBackgroundHandler)

	return ic
}

func (ic *ImageController) caller(c *gin.Context) (middleware.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, middleware.MsgNoAuthHeader, nil)
	}
	return caller, ok
}

func (ic *ImageController) CreateImageHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	var req image.CreateRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	in, err := image.ToDomainImage(req, caller.ID)
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	img, err := ic.imageService.CreateImage(c.Request.Context(), caller.ID, in)
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusCreated, image.Single{Image: image.ToResponseImage(*img)})
}

func (ic *ImageController) GetImageHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	img, err := ic.imageService.GetImage(c.Request.Context(), caller.ID, c.Param("id"))
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusOK, image.Single{Image: image.ToResponseImage(*img)})
}

func (ic *ImageController) UpdateImageHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	var req image.UpdateRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	img, err := ic.imageService.UpdateTitle(c.Request.Context(), caller.ID, c.Param("id"), req.Title)
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusOK, image.Single{Image: image.ToResponseImage(*img)})
}

func (ic *ImageController) DeleteImageHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	res, err := ic.imageService.DeleteImage(c.Request.Context(), caller.ID, c.Param("id"))
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusOK, image.Removed{
		Image:         image.ToResponseImage(*res.Image),
		StorageErrors: res.StorageErrors,
	})
}

func (ic *ImageController) AddURLHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	var req image.AddURLRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	img, err := ic.imageService.AppendURL(c.Request.Context(), caller.ID, c.Param("id"), req.URL, req.Key)
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusOK, image.Single{Image: image.ToResponseImage(*img)})
}

func (ic *ImageController) ListMyImagesHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	var q image.ListQuery
	if err := validator.BindQuery(c, &q); err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	page, err := ic.imageService.ListMine(c.Request.Context(), caller.ID, q.Page, q.Limit)
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusOK, image.ToList(*page))
}

func (ic *ImageController) RemoveBackgroundHandler(c *gin.Context) {
	caller, ok := ic.caller(c)
	if !ok {
		return
	}

	img, err := ic.imageService.RequestBackgroundRemoval(c.Request.Context(), caller.ID, c.Param("id"))
	if err != nil {
		response.Error(c, ic.logger, err)
		return
	}

	response.Success(c, http.StatusAccepted, image.BgRemovalQueued{
		Image:  image.ToResponseImage(*img),
		Status: bgRemovalQueued,
	})
}
