package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/domain/repositories"
)

// listEnvelope builds the collection payload every list endpoint returns:
// items, total, page and pages are always present, an empty page included.
// The query must already be normalized so page and pages line up with the
// rows actually fetched.
func listEnvelope(items any, total int, q repositories.PageQuery) gin.H {
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return gin.H{
		"items": items,
		"total": total,
		"page":  q.Page,
		"pages": pages,
	}
}
