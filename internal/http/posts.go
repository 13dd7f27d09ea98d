package http

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/keepsake/internal/entities"
)

var periodKeyShape = regexp.MustCompile(`^\d{4}-\d{2}$`)

// PostReader exposes the read side of the post archive.
type PostReader interface {
	GetBySource(source entities.SourceType, limit, offset int) ([]entities.Post, error)
	GetByPeriod(periodKey string) ([]entities.Post, error)
	GetImportRuns(limit int) ([]entities.ImportRun, error)
}

type PostsController struct {
	reader PostReader
}

func NewPostsController(reader PostReader) *PostsController {
	return &PostsController{reader: reader}
}

// BySource handles GET /api/posts/:source with limit/offset pagination.
func (c *PostsController) BySource(ctx *gin.Context) {
	source, err := entities.ParseSourceType(ctx.Param("source"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	posts, err := c.reader.GetBySource(source, limit, offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// ByPeriod handles GET /api/periods/:period, where :period is a YYYY-MM
// bucket.
func (c *PostsController) ByPeriod(ctx *gin.Context) {
	period := ctx.Param("period")
	if !periodKeyShape.MatchString(period) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "period must be formatted as YYYY-MM"})
		return
	}

	posts, err := c.reader.GetByPeriod(period)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// ImportRuns handles GET /api/import/runs, newest first.
func (c *PostsController) ImportRuns(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	runs, err := c.reader.GetImportRuns(limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"runs": runs})
}
