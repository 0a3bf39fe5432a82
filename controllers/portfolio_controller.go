package controllers

import (
	"encoding/json"

	"github.com/Govind-619/FolioForge/middleware"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

// PortfolioController manages the caller's portfolios and serves public ones.
type PortfolioController struct {
	portfolios *services.PortfolioService
}

func NewPortfolioController(portfolios *services.PortfolioService) *PortfolioController {
	return &PortfolioController{portfolios: portfolios}
}

// PortfolioRequest is the body of create and update
type PortfolioRequest struct {
	Title    string          `json:"title"`
	Slug     string          `json:"slug"`
	Template string          `json:"template"`
	Content  json.RawMessage `json:"content"`
}

func (r PortfolioRequest) input() services.PortfolioInput {
	return services.PortfolioInput{
		Title:    r.Title,
		Slug:     r.Slug,
		Template: r.Template,
		Content:  r.Content,
	}
}

// Create spends a token on a new portfolio.
func (p *PortfolioController) Create(c *gin.Context) {
	var req PortfolioRequest
	if !bindJSON(c, &req) {
		return
	}
	user, _ := middleware.CurrentUser(c)

	portfolio, err := p.portfolios.Create(c.Request.Context(), user.ID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, "Portfolio created successfully", portfolio)
}

// List returns the caller's portfolios.
func (p *PortfolioController) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	list, err := p.portfolios.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Portfolios retrieved successfully", gin.H{"portfolios": list})
}

// Get returns one of the caller's portfolios.
func (p *PortfolioController) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	portfolio, err := p.portfolios.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Portfolio retrieved successfully", portfolio)
}

// Update replaces the editable fields of a portfolio.
func (p *PortfolioController) Update(c *gin.Context) {
	var req PortfolioRequest
	if !bindJSON(c, &req) {
		return
	}
	user, _ := middleware.CurrentUser(c)

	portfolio, err := p.portfolios.Update(c.Request.Context(), user.ID, c.Param("id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, utils.MsgUpdateSuccess, portfolio)
}

// Publish makes a portfolio visible at /p/:slug.
func (p *PortfolioController) Publish(c *gin.Context) {
	p.setPublished(c, true)
}

// Unpublish hides a portfolio.
func (p *PortfolioController) Unpublish(c *gin.Context) {
	p.setPublished(c, false)
}

func (p *PortfolioController) setPublished(c *gin.Context, published bool) {
	user, _ := middleware.CurrentUser(c)
	portfolio, err := p.portfolios.SetPublished(c.Request.Context(), user.ID, c.Param("id"), published)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, utils.MsgUpdateSuccess, portfolio)
}

// Delete removes a portfolio.
func (p *PortfolioController) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := p.portfolios.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, utils.MsgDeleteSuccess, nil)
}

// Public serves a published portfolio document.
func (p *PortfolioController) Public(c *gin.Context) {
	portfolio, err := p.portfolios.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Portfolio retrieved successfully", gin.H{
		"slug":     portfolio.Slug,
		"title":    portfolio.Title,
		"template": portfolio.Template,
		"content":  portfolio.Content,
	})
}
