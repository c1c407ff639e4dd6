package api

import (
	"net/http"

	"celestial/internal/catalog"
	"celestial/internal/pg"

	"github.com/gin-gonic/gin"
)

type schemaView struct {
	Issues []catalog.SchemaIssue `json:"issues"`
	DDL    []string              `json:"ddl"`
}

// GET /admin/schema — результат линтера каталога и DDL, который применяется при auto-migrate
func AdminSchemaHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat := repo.Catalog()
		issues := cat.Lint()
		if issues == nil {
			issues = []catalog.SchemaIssue{}
		}
		ddl, err := pg.GenerateDDL(cat)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, envelope{
				Success: false,
				Message: err.Error(),
				Code:    "VALIDATION",
				Data:    schemaView{Issues: issues, DDL: []string{}},
			})
			return
		}
		success(c, schemaView{Issues: issues, DDL: ddl})
	}
}
