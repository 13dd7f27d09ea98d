package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/keepsake/internal/entities"
)

// SourceCounter exposes the per-source archive statistics.
type SourceCounter interface {
	CountBySource() (map[entities.SourceType]int64, error)
}

type SourceInfo struct {
	Name  string `json:"name"`
	Posts int64  `json:"posts"`
}

type SourcesController struct {
	types   []entities.SourceType
	counter SourceCounter
}

func NewSourcesController(types []entities.SourceType, counter SourceCounter) *SourcesController {
	return &SourcesController{
		types:   types,
		counter: counter,
	}
}

// List handles GET /api/sources: every supported source type plus the
// stored post count for each.
func (c *SourcesController) List(ctx *gin.Context) {
	counts := map[entities.SourceType]int64{}
	if c.counter != nil {
		loaded, err := c.counter.CountBySource()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		counts = loaded
	}

	sources := make([]SourceInfo, 0, len(c.types))
	for _, st := range c.types {
		sources = append(sources, SourceInfo{
			Name:  string(st),
			Posts: counts[st],
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"sources": sources})
}
