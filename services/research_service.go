package services

import (
	"jetlex_app_go/models"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	researchCategories = []string{models.ResearchCategoryAviacionCivil, models.ResearchCategoryDefensa, models.ResearchCategoryInteligencia, models.ResearchCategoryGaming, models.ResearchCategoryRegulatorio, models.ResearchCategoryTecnologia, models.ResearchCategoryOtro}
	researchStatuses   = []string{models.ResearchStatusBorrador, models.ResearchStatusEnRevision, models.ResearchStatusPublicado, models.ResearchStatusArchivado}
)

// ResearchInput carries the editable fields of a research article
type ResearchInput struct {
	Title           string   `json:"titulo"`
	Category        string   `json:"categoria"`
	Content         string   `json:"contenido"`
	Sources         []string `json:"fuentes"`
	Status          string   `json:"estado"`
	Visibility      string   `json:"visibilidad"`
	Conclusions     string   `json:"conclusiones"`
	Recommendations string   `json:"recomendaciones"`
	Tags            []string `json:"tags"`
}

func validateResearchInput(input *ResearchInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Validation("titulo", "title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return Validation("contenido", "content is required")
	}
	if input.Category == "" {
		input.Category = models.ResearchCategoryOtro
	}
	if !slices.Contains(researchCategories, input.Category) {
		return Validation("categoria", "invalid category")
	}
	if input.Status == "" {
		input.Status = models.ResearchStatusBorrador
	}
	if !slices.Contains(researchStatuses, input.Status) {
		return Validation("estado", "invalid status")
	}
	if input.Visibility == "" {
		input.Visibility = models.VisibilityEquipo
	}
	return nil
}

// CreateResearch stores a research article written by author
func CreateResearch(db *gorm.DB, input ResearchInput, author *models.User) (*models.Research, error) {
	if err := validateResearchInput(&input); err != nil {
		return nil, err
	}
	r := &models.Research{
		Title:           input.Title,
		Category:        input.Category,
		Content:         input.Content,
		Sources:         models.StringList(input.Sources),
		AuthorID:        author.ID,
		Status:          input.Status,
		Visibility:      input.Visibility,
		Conclusions:     input.Conclusions,
		Recommendations: input.Recommendations,
		Tags:            models.StringList(input.Tags),
	}
	if err := db.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListResearch returns articles, optionally by status, newest first
func ListResearch(db *gorm.DB, status string, limit int) ([]models.Research, error) {
	query := db.Preload("Author")
	if status != "" {
		query = query.Where("estado = ?", status)
	}
	if limit <= 0 {
		limit = 50
	}
	var items []models.Research
	err := query.Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

// SetResearchStatus moves an article through its editorial states
func SetResearchStatus(db *gorm.DB, id, status string) (*models.Research, error) {
	if !slices.Contains(researchStatuses, status) {
		return nil, Validation("estado", "invalid status")
	}
	var r models.Research
	if err := db.First(&r, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err, "research")
	}
	if err := db.Model(&r).Update("estado", status).Error; err != nil {
		return nil, err
	}
	r.Status = status
	return &r, nil
}

// RecentPublishedResearch returns articles published since a date, newest first
func RecentPublishedResearch(db *gorm.DB, since time.Time, limit int) ([]models.Research, error) {
	var items []models.Research
	err := db.Where("estado = ? AND created_at >= ?", models.ResearchStatusPublicado, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
