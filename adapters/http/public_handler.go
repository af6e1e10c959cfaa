package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/portgen/internal/application/usecase/portfolio"
	"github.com/khoahotran/portgen/pkg/logger"
)

type PublicHandler struct {
	getPublicPortfolioUseCase *portfolioUC.GetPublicPortfolioUseCase
	logger                    logger.Logger
}

func NewPublicHandler(getPublicUC *portfolioUC.GetPublicPortfolioUseCase, log logger.Logger) *PublicHandler {
	return &PublicHandler{getPublicPortfolioUseCase: getPublicUC, logger: log}
}

func (h *PublicHandler) GetPortfolio(c *gin.Context) {
	out, err := h.getPublicPortfolioUseCase.Execute(c.Request.Context(), portfolioUC.GetPublicPortfolioInput{
		PortfolioID: c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	if out.Cached {
		c.Header("X-Cache", "HIT")
	}
	c.JSON(http.StatusOK, out.Model)
}

func (h *PublicHandler) GetPortfolioByUsername(c *gin.Context) {
	out, err := h.getPublicPortfolioUseCase.Execute(c.Request.Context(), portfolioUC.GetPublicPortfolioInput{
		Username: c.Param("username"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out.Model)
}
