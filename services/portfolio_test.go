package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPortfolioFixture(t *testing.T, tokens int) (*PortfolioService, *store.MemoryStore, models.User) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	u := models.User{Email: "grace@example.com", Name: "Grace Hopper"}
	require.NoError(t, st.CreateUser(ctx, &u))
	u, err := st.UpdateUser(ctx, u.ID, func(_ store.UserTx, user *models.User) error {
		user.Tokens = tokens
		return nil
	})
	require.NoError(t, err)
	return NewPortfolioService(st), st, u
}

func TestPortfolioCreate_SpendsToken(t *testing.T) {
	svc, st, u := newPortfolioFixture(t, 2)
	ctx := context.Background()

	p, err := svc.Create(ctx, u.ID, PortfolioInput{Title: "My Site"})
	require.NoError(t, err)
	assert.Equal(t, "my-site", p.Slug)
	assert.Equal(t, defaultTemplate, p.Template)
	assert.JSONEq(t, `{}`, string(p.Content))
	assert.False(t, p.Published)

	second, err := svc.Create(ctx, u.ID, PortfolioInput{Title: "My Site", Template: "Minimal"})
	require.NoError(t, err)
	assert.Equal(t, "my-site-2", second.Slug)
	assert.Equal(t, "minimal", second.Template)

	after, err := st.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Tokens)

	mine, err := svc.ListMine(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestPortfolioCreate_UnlimitedTokensStayUnlimited(t *testing.T) {
	svc, st, u := newPortfolioFixture(t, models.UnlimitedTokens)
	ctx := context.Background()

	for _, title := range []string{"First", "Second", "Third"} {
		_, err := svc.Create(ctx, u.ID, PortfolioInput{Title: title})
		require.NoError(t, err)
	}

	after, err := st.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnlimitedTokens, after.Tokens)
	assert.True(t, after.HasUnlimitedTokens())
}

func TestPortfolioCreate_NoTokens(t *testing.T) {
	svc, st, u := newPortfolioFixture(t, 0)
	ctx := context.Background()

	_, err := svc.Create(ctx, u.ID, PortfolioInput{Title: "Nope"})
	assert.ErrorIs(t, err, ErrNoTokens)

	mine, err := svc.ListMine(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	exists, err := st.SlugExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPortfolioCreate_ExplicitSlugTaken(t *testing.T) {
	svc, _, u := newPortfolioFixture(t, 3)
	ctx := context.Background()

	_, err := svc.Create(ctx, u.ID, PortfolioInput{Title: "One", Slug: "grace"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, u.ID, PortfolioInput{Title: "Two", Slug: "Grace"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestPortfolioCreate_SanitizesInput(t *testing.T) {
	svc, _, u := newPortfolioFixture(t, 1)

	content := json.RawMessage(`{"bio":"<script>alert(1)</script>Engineer","<b>links</b>":["<a href=\"x\">site</a>"]}`)
	p, err := svc.Create(context.Background(), u.ID, PortfolioInput{
		Title:   "<b>Grace</b>",
		Content: content,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace", p.Title)
	assert.NotContains(t, string(p.Content), "<script>")
	assert.NotContains(t, string(p.Content), "<a ")
	assert.Contains(t, string(p.Content), `"links"`)
}

func TestPortfolioCreate_Validation(t *testing.T) {
	svc, st, u := newPortfolioFixture(t, 5)
	ctx := context.Background()

	tests := []struct {
		name string
		in   PortfolioInput
	}{
		{"empty title", PortfolioInput{Title: "  "}},
		{"unknown template", PortfolioInput{Title: "A", Template: "neon"}},
		{"short slug", PortfolioInput{Title: "A", Slug: "ab"}},
		{"content not an object", PortfolioInput{Title: "A", Content: json.RawMessage(`[1,2]`)}},
		{"content not json", PortfolioInput{Title: "A", Content: json.RawMessage(`{bio:`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, u.ID, tt.in)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	after, err := st.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Tokens)
}

func TestPortfolio_PublishAndOwnership(t *testing.T) {
	svc, st, u := newPortfolioFixture(t, 1)
	ctx := context.Background()

	p, err := svc.Create(ctx, u.ID, PortfolioInput{Title: "Public Page"})
	require.NoError(t, err)

	_, err = svc.GetPublic(ctx, p.Slug)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)

	_, err = svc.SetPublished(ctx, u.ID, p.ID, true)
	require.NoError(t, err)
	public, err := svc.GetPublic(ctx, "Public Page")
	require.NoError(t, err)
	assert.Equal(t, p.ID, public.ID)

	other := models.User{Email: "eve@example.com"}
	require.NoError(t, st.CreateUser(ctx, &other))
	_, err = svc.Get(ctx, other.ID, p.ID)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, p.ID), ErrPortfolioNotFound)
	_, err = svc.Update(ctx, other.ID, p.ID, PortfolioInput{Title: "Hijack"})
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestPortfolio_UpdateAndDelete(t *testing.T) {
	svc, st, u := newPortfolioFixture(t, 2)
	ctx := context.Background()

	first, err := svc.Create(ctx, u.ID, PortfolioInput{Title: "First"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, u.ID, PortfolioInput{Title: "Second"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, u.ID, first.ID, PortfolioInput{
		Title:    "First Again",
		Slug:     "first-again",
		Template: "creative",
		Content:  json.RawMessage(`{"headline":"hi"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "first-again", updated.Slug)
	assert.Equal(t, "creative", updated.Template)
	assert.JSONEq(t, `{"headline":"hi"}`, string(updated.Content))

	_, err = svc.Update(ctx, u.ID, second.ID, PortfolioInput{Title: "Second", Slug: "first-again"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	require.NoError(t, svc.Delete(ctx, u.ID, first.ID))
	_, err = svc.Get(ctx, u.ID, first.ID)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)

	after, err := st.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Tokens, "deleting a portfolio does not refund its token")
}
