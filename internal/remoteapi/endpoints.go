package remoteapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/gamefolio/internal/models"
)

func (c *Client) ListPortfolios(ctx context.Context, token string, page, size int) (models.Page[models.Portfolio], error) {
	var out models.Page[models.Portfolio]
	err := c.do(ctx, "ListPortfolios", http.MethodGet, "/portfolios"+pageQuery(page, size, nil), token, nil, &out)
	return out, err
}

func (c *Client) SearchPortfolios(ctx context.Context, token, query string, page, size int) (models.Page[models.Portfolio], error) {
	var out models.Page[models.Portfolio]
	path := "/portfolios/search" + pageQuery(page, size, map[string]string{"q": query})
	err := c.do(ctx, "SearchPortfolios", http.MethodGet, path, token, nil, &out)
	return out, err
}

func (c *Client) GetPortfolio(ctx context.Context, token, id string) (models.Portfolio, error) {
	var out models.Portfolio
	err := c.do(ctx, "GetPortfolio", http.MethodGet, "/portfolios/"+url.PathEscape(id), token, nil, &out)
	return out, err
}

// RatePortfolio отправляет оценку. Ответ содержит пересчитанный средний рейтинг.
func (c *Client) RatePortfolio(ctx context.Context, token, id string, rating int) (models.RatingResult, error) {
	var out models.RatingResult
	body := map[string]int{"rating": rating}
	err := c.do(ctx, "RatePortfolio", http.MethodPost, "/portfolios/"+url.PathEscape(id)+"/rate", token, body, &out)
	return out, err
}

// MyRating возвращает оценку зрителя. Если зритель не оценивал портфолио, API отвечает 404.
func (c *Client) MyRating(ctx context.Context, token, id string) (models.MyRating, error) {
	var out models.MyRating
	err := c.do(ctx, "MyRating", http.MethodGet, "/portfolios/"+url.PathEscape(id)+"/my-rating", token, nil, &out)
	if err == nil && out.PortfolioID == "" {
		out.PortfolioID = id
	}
	return out, err
}

func (c *Client) ListStudios(ctx context.Context, token string, page, size int) (models.Page[models.Studio], error) {
	var out models.Page[models.Studio]
	err := c.do(ctx, "ListStudios", http.MethodGet, "/studios"+pageQuery(page, size, nil), token, nil, &out)
	return out, err
}

func (c *Client) SearchStudios(ctx context.Context, token, query string, page, size int) (models.Page[models.Studio], error) {
	var out models.Page[models.Studio]
	path := "/studios/search" + pageQuery(page, size, map[string]string{"q": query})
	err := c.do(ctx, "SearchStudios", http.MethodGet, path, token, nil, &out)
	return out, err
}

func (c *Client) GetStudio(ctx context.Context, token, id string) (models.Studio, error) {
	var out models.Studio
	err := c.do(ctx, "GetStudio", http.MethodGet, "/studios/"+url.PathEscape(id), token, nil, &out)
	return out, err
}

func (c *Client) FollowStudio(ctx context.Context, token, id string) (models.FollowResult, error) {
	var out models.FollowResult
	err := c.do(ctx, "FollowStudio", http.MethodPost, "/studios/"+url.PathEscape(id)+"/follow", token, nil, &out)
	return out, err
}

// ListPosts возвращает ленту публикаций. Пустой kind означает все типы.
func (c *Client) ListPosts(ctx context.Context, token string, kind models.PostKind, page, size int) (models.Page[models.Post], error) {
	var out models.Page[models.Post]
	path := "/posts" + pageQuery(page, size, map[string]string{"type": string(kind)})
	err := c.do(ctx, "ListPosts", http.MethodGet, path, token, nil, &out)
	return out, err
}

func (c *Client) GetPost(ctx context.Context, token, id string) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, "GetPost", http.MethodGet, "/posts/"+url.PathEscape(id), token, nil, &out)
	return out, err
}

func (c *Client) LikePost(ctx context.Context, token, id string) (models.LikeResult, error) {
	var out models.LikeResult
	err := c.do(ctx, "LikePost", http.MethodPost, "/posts/"+url.PathEscape(id)+"/like", token, nil, &out)
	return out, err
}

func (c *Client) EliteStatus(ctx context.Context, token string) (models.EliteStatus, error) {
	var out models.EliteStatus
	err := c.do(ctx, "EliteStatus", http.MethodGet, "/users/me/elite-status", token, nil, &out)
	return out.Normalize(), err
}

// CreateOrder создает заказ для хостового чекаута.
func (c *Client) CreateOrder(ctx context.Context, token string, plan models.Plan, receipt string) (models.Order, error) {
	var out models.Order
	body := map[string]string{"plan": string(plan), "receipt": receipt}
	err := c.do(ctx, "CreateOrder", http.MethodPost, "/payments/orders", token, body, &out)
	return out, err
}

// VerifyPayment передает подтверждение чекаута на серверную проверку.
func (c *Client) VerifyPayment(ctx context.Context, token string, confirmation models.Confirmation) error {
	return c.do(ctx, "VerifyPayment", http.MethodPost, "/payments/verify", token, confirmation, nil)
}
