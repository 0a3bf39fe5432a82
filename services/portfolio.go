package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"gorm.io/datatypes"
)

var (
	// ErrNoTokens is returned when creating a portfolio without tokens.
	ErrNoTokens = errors.New("no portfolio tokens left")
	// ErrPortfolioNotFound is returned for missing or foreign portfolios.
	ErrPortfolioNotFound = errors.New("portfolio not found")
	// ErrSlugTaken is returned when a requested slug is in use.
	ErrSlugTaken = errors.New("slug already taken")
)

// Portfolio templates
var templates = map[string]bool{
	"classic":  true,
	"minimal":  true,
	"creative": true,
	"modern":   true,
}

const defaultTemplate = "classic"

// maxSlugAttempts bounds the -N suffix search for a free slug.
const maxSlugAttempts = 50

// PortfolioInput is the editable part of a portfolio.
type PortfolioInput struct {
	Title    string
	Slug     string
	Template string
	Content  json.RawMessage
}

// PortfolioService manages portfolio documents and spends tokens.
type PortfolioService struct {
	store store.Store
}

// NewPortfolioService creates the portfolio workflow.
func NewPortfolioService(st store.Store) *PortfolioService {
	return &PortfolioService{store: st}
}

// Create spends one token and stores the portfolio in the same transaction.
func (s *PortfolioService) Create(ctx context.Context, userID string, in PortfolioInput) (models.Portfolio, error) {
	if userID == "" {
		return models.Portfolio{}, ErrInvalidUser
	}
	p, err := s.normalize(in)
	if err != nil {
		return models.Portfolio{}, err
	}
	p.UserID = userID
	if p.Content == nil {
		p.Content = datatypes.JSON("{}")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Portfolio{}, ErrInvalidUser
	}
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("load user: %w", err)
	}

	base := p.Slug
	explicit := base != ""
	if !explicit {
		base = utils.MakeSlug(p.Title)
		if base == "" {
			base = utils.MakeSlug(user.Name)
		}
		if base == "" {
			base = "portfolio"
		}
	}
	slug, err := s.freeSlug(ctx, base, explicit)
	if err != nil {
		return models.Portfolio{}, err
	}
	p.Slug = slug

	_, err = s.store.UpdateUser(ctx, userID, func(tx store.UserTx, u *models.User) error {
		if u.Tokens < 1 {
			return ErrNoTokens
		}
		// The unlimited sentinel is never spent down.
		if !u.HasUnlimitedTokens() {
			u.Tokens--
		}
		return tx.CreatePortfolio(ctx, &p)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return models.Portfolio{}, ErrSlugTaken
	}
	if err != nil {
		return models.Portfolio{}, err
	}

	utils.LoggerFromContext(ctx).Info().
		Str("user_id", userID).
		Str("portfolio_id", p.ID).
		Str("slug", p.Slug).
		Msg("portfolio.created")
	return p, nil
}

// freeSlug returns base, or base-N for the first free N. An explicitly
// requested slug is never rewritten.
func (s *PortfolioService) freeSlug(ctx context.Context, base string, explicit bool) (string, error) {
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		if explicit {
			return "", ErrSlugTaken
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", ErrSlugTaken
}

// Get returns a portfolio owned by userID.
func (s *PortfolioService) Get(ctx context.Context, userID, id string) (models.Portfolio, error) {
	p, err := s.store.GetPortfolio(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.UserID != userID) {
		return models.Portfolio{}, ErrPortfolioNotFound
	}
	return p, err
}

// ListMine returns the user's portfolios, newest first.
func (s *PortfolioService) ListMine(ctx context.Context, userID string) ([]models.Portfolio, error) {
	return s.store.ListPortfolios(ctx, userID)
}

// Update replaces the editable fields of a portfolio.
func (s *PortfolioService) Update(ctx context.Context, userID, id string, in PortfolioInput) (models.Portfolio, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Portfolio{}, err
	}
	next, err := s.normalize(in)
	if err != nil {
		return models.Portfolio{}, err
	}

	p.Title = next.Title
	p.Template = next.Template
	if next.Content != nil {
		p.Content = next.Content
	}
	if next.Slug != "" && next.Slug != p.Slug {
		if _, err := s.freeSlug(ctx, next.Slug, true); err != nil {
			return models.Portfolio{}, err
		}
		p.Slug = next.Slug
	}

	if err := s.store.UpdatePortfolio(ctx, &p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Portfolio{}, ErrSlugTaken
		}
		return models.Portfolio{}, err
	}
	return p, nil
}

// SetPublished publishes or unpublishes a portfolio.
func (s *PortfolioService) SetPublished(ctx context.Context, userID, id string, published bool) (models.Portfolio, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Portfolio{}, err
	}
	if p.Published == published {
		return p, nil
	}
	p.Published = published
	if err := s.store.UpdatePortfolio(ctx, &p); err != nil {
		return models.Portfolio{}, err
	}
	utils.LoggerFromContext(ctx).Info().
		Str("portfolio_id", p.ID).
		Bool("published", published).
		Msg("portfolio.visibility_changed")
	return p, nil
}

// Delete removes a portfolio. Spent tokens are not refunded.
func (s *PortfolioService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeletePortfolio(ctx, id)
}

// GetPublic returns a published portfolio by slug.
func (s *PortfolioService) GetPublic(ctx context.Context, slug string) (models.Portfolio, error) {
	p, err := s.store.GetPortfolioBySlug(ctx, utils.MakeSlug(slug))
	if errors.Is(err, store.ErrNotFound) || (err == nil && !p.Published) {
		return models.Portfolio{}, ErrPortfolioNotFound
	}
	return p, err
}

// normalize validates input and sanitizes every free-text value.
func (s *PortfolioService) normalize(in PortfolioInput) (models.Portfolio, error) {
	var errs utils.FieldValidationErrors

	title := utils.SanitizeString(in.Title)
	if err := utils.ValidateStringLength(title, 1, utils.MaxTitleLength); err != nil {
		errs.Add("title", err.Error())
	}

	slug := ""
	if strings.TrimSpace(in.Slug) != "" {
		slug = utils.MakeSlug(in.Slug)
		if err := utils.ValidateStringLength(slug, 3, 63); err != nil {
			errs.Add("slug", err.Error())
		}
	}

	template := strings.ToLower(strings.TrimSpace(in.Template))
	if template == "" {
		template = defaultTemplate
	}
	if !templates[template] {
		errs.Add("template", "unknown template")
	}

	var content datatypes.JSON
	if len(in.Content) > 0 {
		if len(in.Content) > utils.MaxContentSize {
			errs.Add("content", "content is too large")
		} else {
			var doc interface{}
			if err := json.Unmarshal(in.Content, &doc); err != nil {
				errs.Add("content", "content must be valid JSON")
			} else if _, ok := doc.(map[string]interface{}); !ok {
				errs.Add("content", "content must be a JSON object")
			} else {
				clean, _ := json.Marshal(utils.SanitizeJSON(doc))
				content = datatypes.JSON(clean)
			}
		}
	}

	if err := errs.Err(); err != nil {
		return models.Portfolio{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return models.Portfolio{Title: title, Slug: slug, Template: template, Content: content}, nil
}
