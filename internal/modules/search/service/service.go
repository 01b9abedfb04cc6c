package service

import (
	"fmt"
	"html"
	"log"
	"os"
	"strings"
	"time"

	"failboard.id/failboard/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

type SearchService interface {
	IndexFail(fail *entity.Fail) error
	DeleteFail(id string) error
	GenerateSearchToken() (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	masterKey     string
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	masterKey := os.Getenv("MEILI_MASTER_KEY")
	if masterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}

	s := &searchService{
		client:    client,
		masterKey: masterKey,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initIndexes() {
	filterableAttrs := []string{"category_id"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index("fails").UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update fails filterable attributes: %v", err)
	}

	sortableAttrs := []string{"created_at", "views"}
	if _, err := s.client.Index("fails").UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update fails sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

func (s *searchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 20})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			log.Println("Found existing Meilisearch signing key")
			return
		}
	}

	expiry := time.Now().AddDate(100, 0, 0)
	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{"fails"},
		ExpiresAt:   expiry,
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("Created new Meilisearch signing key")
}

type meiliFailDoc struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Story        string          `json:"story"`
	Lesson       string          `json:"lesson"`
	Slug         string          `json:"slug"`
	Views        int             `json:"views"`
	CreatedAt    int64           `json:"created_at"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	User         meiliUserSubset `json:"user"`
}

type meiliUserSubset struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

func (s *searchService) cleanContentForIndex(content string) string {
	// Replace block tags with spaces so adjacent text doesn't merge
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	cleanText = strings.Join(strings.Fields(cleanText), " ")

	return cleanText
}

func (s *searchService) IndexFail(fail *entity.Fail) error {
	doc := meiliFailDoc{
		ID:           fail.ID.String(),
		Title:        fail.Title,
		Story:        s.cleanContentForIndex(fail.Story),
		Lesson:       s.cleanContentForIndex(fail.Lesson),
		Slug:         fail.Slug,
		Views:        fail.Views,
		CreatedAt:    fail.CreatedAt.Unix(),
		CategoryName: fail.Category.Name,
		User: meiliUserSubset{
			Username:  fail.User.Username,
			AvatarURL: getStringOrEmpty(fail.User.AvatarURL),
		},
	}
	if fail.CategoryID != nil {
		doc.CategoryID = fail.CategoryID.String()
	}

	task, err := s.client.Index("fails").AddDocuments([]meiliFailDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed fail %s, task id: %d", fail.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeleteFail(id string) error {
	_, err := s.client.Index("fails").DeleteDocument(id)
	return err
}

func (s *searchService) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{
		"fails": map[string]any{"filter": nil},
	}

	token, err := s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func getStringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
