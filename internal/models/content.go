package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Contact контактные данные владельца портфолио.
type Contact struct {
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
	Discord string `json:"discord,omitempty"`
}

// Stats игровая статистика профиля.
type Stats struct {
	ProjectsShipped int `json:"projectsShipped"`
	YearsActive     int `json:"yearsActive"`
	Followers       int `json:"followers"`
}

// Portfolio профиль разработчика. Поля Skills, Bio, Stats, Contact и ResumeURL
// закрываются правилами видимости, остальные публичны.
type Portfolio struct {
	ID            string   `json:"id"`
	OwnerID       string   `json:"ownerId"`
	Name          string   `json:"name"`
	AvatarURL     string   `json:"avatarUrl"`
	Role          string   `json:"role"`
	Location      string   `json:"location"`
	IsPremium     bool     `json:"isPremium"`
	AverageRating float64  `json:"averageRating"`
	RatingCount   int      `json:"ratingCount"`
	Skills        []string `json:"skills,omitempty"`
	Bio           string   `json:"bio,omitempty"`
	Stats         *Stats   `json:"stats,omitempty"`
	Contact       *Contact `json:"contact,omitempty"`
	ResumeURL     string   `json:"resumeUrl,omitempty"`
}

// Studio игровая студия из каталога.
type Studio struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	LogoURL   string   `json:"logoUrl"`
	Location  string   `json:"location"`
	Genres    []string `json:"genres,omitempty"`
	Followers int      `json:"followers"`
}

// RatingResult ответ удаленного API на оценку портфолио.
type RatingResult struct {
	Rating           int     `json:"rating"`
	NewAverageRating float64 `json:"newAverageRating"`
	NewRatingCount   int     `json:"newRatingCount"`
}

// MyRating оценка, поставленная зрителем. Хранится в кеше с ключом зрителя.
type MyRating struct {
	PortfolioID string `json:"portfolioId"`
	Rating      int    `json:"rating"`
}

// LikeResult ответ удаленного API на переключение лайка.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// FollowResult ответ удаленного API на подписку на студию.
type FollowResult struct {
	Following bool `json:"following"`
	Followers int  `json:"followers"`
}

// Reaction состояние зрителя по отношению к сущности (лайк, подписка).
type Reaction struct {
	Key    string `json:"key"` // userID:entityID
	Active bool   `json:"active"`
}

// ReactionKey строит ключ реакции зрителя.
func ReactionKey(userID, entityID string) string {
	return userID + ":" + entityID
}

// PostKind тип публикации.
type PostKind string

const (
	KindReview      PostKind = "review"
	KindDocumentary PostKind = "documentary"
	KindPodcast     PostKind = "podcast"
	KindArticle     PostKind = "article"
)

// PostBody вариант содержимого публикации. Реализуется только типами этого пакета.
type PostBody interface {
	Kind() PostKind
	isPostBody()
}

// Review обзор игры.
type Review struct {
	GameTitle string  `json:"gameTitle"`
	Score     float64 `json:"score"`
	Verdict   string  `json:"verdict,omitempty"`
}

// Documentary видео-документалка.
type Documentary struct {
	VideoURL        string `json:"videoUrl"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Podcast выпуск подкаста.
type Podcast struct {
	AudioURL      string   `json:"audioUrl"`
	EpisodeNumber int      `json:"episodeNumber"`
	Guests        []string `json:"guests,omitempty"`
}

// ArticleBlock блок статьи из блочного редактора.
type ArticleBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Article текстовая статья.
type Article struct {
	Blocks []ArticleBlock `json:"blocks"`
}

func (Review) Kind() PostKind      { return KindReview }
func (Documentary) Kind() PostKind { return KindDocumentary }
func (Podcast) Kind() PostKind     { return KindPodcast }
func (Article) Kind() PostKind     { return KindArticle }

func (Review) isPostBody()      {}
func (Documentary) isPostBody() {}
func (Podcast) isPostBody()     {}
func (Article) isPostBody()     {}

// Post публикация ленты. Поля тела зависят от типа и лежат в JSON на верхнем уровне.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	AuthorName  string    `json:"authorName"`
	CoverURL    string    `json:"coverUrl"`
	Likes       int       `json:"likes"`
	PublishedAt time.Time `json:"publishedAt"`
	Body        PostBody  `json:"-"`
}

type postFields Post

// UnmarshalJSON выбирает вариант тела по дискриминатору "type".
func (p *Post) UnmarshalJSON(data []byte) error {
	var common postFields
	if err := json.Unmarshal(data, &common); err != nil {
		return err
	}

	kind := PostKind(gjson.GetBytes(data, "type").String())
	var body PostBody
	var err error
	switch kind {
	case KindReview:
		var b Review
		err = json.Unmarshal(data, &b)
		body = b
	case KindDocumentary:
		var b Documentary
		err = json.Unmarshal(data, &b)
		body = b
	case KindPodcast:
		var b Podcast
		err = json.Unmarshal(data, &b)
		body = b
	case KindArticle:
		var b Article
		err = json.Unmarshal(data, &b)
		body = b
	default:
		return fmt.Errorf("unknown post type %q", kind)
	}
	if err != nil {
		return err
	}

	*p = Post(common)
	p.Body = body
	return nil
}

// MarshalJSON кладет поля тела и "type" рядом с общими полями.
func (p Post) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}

	common, err := json.Marshal(postFields(p))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(common, &out); err != nil {
		return nil, err
	}

	if p.Body != nil {
		body, err := json.Marshal(p.Body)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err
		}
		kind, _ := json.Marshal(p.Body.Kind())
		out["type"] = kind
	}
	return json.Marshal(out)
}

// Kind тип публикации, пустой если тело не задано.
func (p Post) Kind() PostKind {
	if p.Body == nil {
		return ""
	}
	return p.Body.Kind()
}
