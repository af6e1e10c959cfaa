package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/portgen/internal/application/usecase/portfolio"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

type PortfolioHandler struct {
	createPortfolioUseCase *portfolioUC.CreatePortfolioUseCase
	deletePortfolioUseCase *portfolioUC.DeletePortfolioUseCase
	listPortfoliosUseCase  *portfolioUC.ListPortfoliosUseCase
	getAccountUseCase      *portfolioUC.GetAccountUseCase
	logger                 logger.Logger
}

func NewPortfolioHandler(
	createUC *portfolioUC.CreatePortfolioUseCase,
	deleteUC *portfolioUC.DeletePortfolioUseCase,
	listUC *portfolioUC.ListPortfoliosUseCase,
	accountUC *portfolioUC.GetAccountUseCase,
	log logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		createPortfolioUseCase: createUC,
		deletePortfolioUseCase: deleteUC,
		listPortfoliosUseCase:  listUC,
		getAccountUseCase:      accountUC,
		logger:                 log,
	}
}

func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found in context", nil))
		return
	}
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	output, err := h.createPortfolioUseCase.Execute(c.Request.Context(), portfolioUC.CreatePortfolioInput{
		Principal: principal,
		Name:      req.Name,
		Template:  req.Template,
		Username:  req.Username,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"portfolio_id": output.Portfolio.ID, "portfolio": output.Portfolio})
}

func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found in context", nil))
		return
	}
	output, err := h.listPortfoliosUseCase.Execute(c.Request.Context(), portfolioUC.ListPortfoliosInput{Principal: principal})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": output.Portfolios, "stale_ids": output.StaleIDs})
}

func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found in context", nil))
		return
	}
	err := h.deletePortfolioUseCase.Execute(c.Request.Context(), portfolioUC.DeletePortfolioInput{
		Principal:   principal,
		PortfolioID: c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PortfolioHandler) GetAccount(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found in context", nil))
		return
	}
	u, err := h.getAccountUseCase.Execute(c.Request.Context(), principal)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToAccountDTO(u))
}
