// Package posts provides database operations for the unified post archive.
package posts

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avolkov/keepsake/internal/entities"
)

// Repository handles all post database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new posts repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveBatch persists one batch of posts. Rows whose duplicate key is
// already stored are silently ignored: the unique index is the last line
// of defense against double-insertion when concurrent imports race.
func (r *Repository) SaveBatch(posts []entities.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dup_key"}},
		DoNothing: true,
	}).Create(&posts).Error
}

// ExistingKeys returns the duplicate keys already stored for a source
// type. The two twitter archive flavors share one key space, so asking
// for either returns the keys of both.
func (r *Repository) ExistingKeys(source entities.SourceType) (map[string]struct{}, error) {
	sources := []entities.SourceType{source}
	switch source {
	case entities.SourceTwitter:
		sources = append(sources, entities.SourceTwitterCSV)
	case entities.SourceTwitterCSV:
		sources = append(sources, entities.SourceTwitter)
	}

	var keys []string
	err := r.db.Model(&entities.Post{}).
		Where("source_type IN ?", sources).
		Pluck("dup_key", &keys).Error
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		existing[key] = struct{}{}
	}
	return existing, nil
}

// CountBySource returns the stored post count per source type.
func (r *Repository) CountBySource() (map[entities.SourceType]int64, error) {
	type row struct {
		SourceType entities.SourceType
		Total      int64
	}
	var rows []row
	err := r.db.Model(&entities.Post{}).
		Select("source_type, COUNT(*) as total").
		Group("source_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entities.SourceType]int64, len(rows))
	for _, r := range rows {
		counts[r.SourceType] = r.Total
	}
	return counts, nil
}

// GetByID retrieves one post.
func (r *Repository) GetByID(id string) (*entities.Post, error) {
	var post entities.Post
	if err := r.db.First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetBySource returns posts of one source type, newest first, paginated.
func (r *Repository) GetBySource(source entities.SourceType, limit, offset int) ([]entities.Post, error) {
	var posts []entities.Post
	query := r.db.Where("source_type = ?", source).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&posts).Error
	return posts, err
}

// GetByPeriod returns posts in a YYYY-MM bucket, oldest first.
func (r *Repository) GetByPeriod(periodKey string) ([]entities.Post, error) {
	var posts []entities.Post
	err := r.db.Where("period_key = ?", periodKey).
		Order("created_at ASC").Find(&posts).Error
	return posts, err
}

// SaveImportRun records the outcome of one archive import.
func (r *Repository) SaveImportRun(run *entities.ImportRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	return r.db.Create(run).Error
}

// GetImportRuns returns the most recent import runs, newest first.
func (r *Repository) GetImportRuns(limit int) ([]entities.ImportRun, error) {
	var runs []entities.ImportRun
	query := r.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}
