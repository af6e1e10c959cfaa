package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/portgen/internal/application/editor"
	"github.com/khoahotran/portgen/internal/domain/portfolio"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

const maxAssetBytes = 10 << 20

type EditorHandler struct {
	sessions *editor.Manager
	logger   logger.Logger
}

func NewEditorHandler(sessions *editor.Manager, log logger.Logger) *EditorHandler {
	return &EditorHandler{sessions: sessions, logger: log}
}

func (h *EditorHandler) OpenSession(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found in context", nil))
		return
	}
	s, err := h.sessions.Open(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToSessionDTO(s))
}

// session resolves :sid for the caller and checks it edits :id.
func (h *EditorHandler) session(c *gin.Context) (*editor.Session, bool) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found in context", nil))
		return nil, false
	}
	s, err := h.sessions.Get(principal, c.Param("sid"))
	if err != nil {
		c.Error(err)
		return nil, false
	}
	if s.PortfolioID() != c.Param("id") {
		c.Error(apperror.NewNotFound("edit session", c.Param("sid")))
		return nil, false
	}
	return s, true
}

func (h *EditorHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ToSessionDTO(s))
}

func (h *EditorHandler) SetField(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	section, err := portfolio.ParseSectionKey(req.Section)
	if err != nil {
		c.Error(err)
		return
	}
	if err := s.SetField(section, req.Field, req.Value); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSessionDTO(s))
}

func (h *EditorHandler) EditItems(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	section, err := portfolio.ParseSectionKey(req.Section)
	if err != nil {
		c.Error(err)
		return
	}
	value, err := req.ValueText()
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid item value", err))
		return
	}

	switch req.Op {
	case OpAdd:
		err = s.AddArrayItem(section, value)
	case OpSet:
		if req.Index == nil {
			err = apperror.NewInvalidInput("index is required", nil)
			break
		}
		err = s.SetArrayItem(section, *req.Index, value)
	case OpRemove:
		if req.Index == nil {
			err = apperror.NewInvalidInput("index is required", nil)
			break
		}
		err = s.RemoveArrayItem(section, *req.Index)
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSessionDTO(s))
}

func (h *EditorHandler) SetSocial(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SocialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	if err := s.SetSocialField(req.Platform, req.Value); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSessionDTO(s))
}

func (h *EditorHandler) EditExperiences(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req ExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	var err error
	switch req.Op {
	case OpAdd:
		err = s.AddExperience()
	case OpSet:
		if req.Index == nil {
			err = apperror.NewInvalidInput("index is required", nil)
			break
		}
		err = s.SetExperienceField(*req.Index, req.Field, req.Value)
	case OpRemove:
		if req.Index == nil {
			err = apperror.NewInvalidInput("index is required", nil)
			break
		}
		err = s.RemoveExperience(*req.Index)
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSessionDTO(s))
}

// AttachAsset takes a multipart form with section, field and file.
func (h *EditorHandler) AttachAsset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	section, err := portfolio.ParseSectionKey(c.PostForm("section"))
	if err != nil {
		c.Error(err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("file is required", err))
		return
	}
	if fileHeader.Size > maxAssetBytes {
		c.Error(apperror.NewInvalidInput("file is too large", nil))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInvalidInput("cannot read uploaded file", err))
		return
	}
	defer file.Close()

	asset, err := s.AttachAsset(c.Request.Context(), section, c.PostForm("field"), editor.AssetFile{
		Body:        file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, AssetDTO{URL: asset.URL, Key: asset.Key})
}

func (h *EditorHandler) GetProgress(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": ToUploadsDTO(s.Progress())})
}

func (h *EditorHandler) Save(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Save(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, SavedDTO{UpdatedAt: s.Snapshot().UpdatedAt})
}

func (h *EditorHandler) CloseSession(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found in context", nil))
		return
	}
	if _, ok := h.session(c); !ok {
		return
	}
	if err := h.sessions.Close(principal, c.Param("sid")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
