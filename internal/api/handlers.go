package api

import (
	"net/http"
	"strings"

	"celestial/internal/query"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// POST /insert-planet
func InsertPlanetHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req insertPlanetReq
		if errs := bindJSON(c, &req); len(errs) > 0 {
			badRequest(c, "Missing or invalid parameters", errs)
			return
		}
		p, errs := req.toPlanet()
		if len(errs) > 0 {
			badRequest(c, "Missing or invalid parameters", errs)
			return
		}
		if err := repo.InsertPlanet(c.Request.Context(), p); err != nil {
			fail(c, err, http.StatusBadRequest, messages{
				"DUPLICATE_KEY":     "Planet with this name already exists.",
				"MISSING_REFERENCE": "The specified star does not exist.",
				"UNKNOWN":           "An unknown error occurred while inserting the planet.",
			})
			return
		}
		done(c)
	}
}

// PUT /update/:table
func UpdateHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateReq
		if errs := bindJSON(c, &req); len(errs) > 0 {
			badRequest(c, "Missing or invalid parameters", errs)
			return
		}
		if err := repo.Update(c.Request.Context(), c.Param("table"), req.Keys, req.Values); err != nil {
			fail(c, err, http.StatusConflict, messages{
				"NOT_FOUND": "Update failed",
				"UNKNOWN":   "Update failed",
			})
			return
		}
		done(c)
	}
}

// PUT /update-star/:starName
func UpdateStarHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateStarReq
		if errs := bindJSON(c, &req); len(errs) > 0 {
			badRequest(c, "Missing or invalid parameters", errs)
			return
		}
		st, errs := req.toStar(c.Param("starName"))
		if len(errs) > 0 {
			badRequest(c, "Missing or invalid parameters", errs)
			return
		}
		if err := repo.UpdateStar(c.Request.Context(), st); err != nil {
			fail(c, err, http.StatusConflict, messages{
				"NOT_FOUND": "Star not found",
				"UNKNOWN":   "Update failed",
			})
			return
		}
		done(c)
	}
}

// DELETE /delete-lifeform/:lfName
func DeleteLifeformHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// gin уже раскодировал %XX в параметре пути
		if err := repo.DeleteLifeform(c.Request.Context(), c.Param("lfName")); err != nil {
			fail(c, err, http.StatusConflict, messages{"NOT_FOUND": "Lifeform not found"})
			return
		}
		done(c)
	}
}

// GET /lifeforms-in-galaxy/:galaxyName
func LifeformsInGalaxyHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := repo.LifeformsInGalaxy(c.Request.Context(), c.Param("galaxyName"))
		if err != nil {
			fail(c, err, http.StatusConflict, nil)
			return
		}
		success(c, rows)
	}
}

func PlanetCountByStarHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := repo.PlanetCountByStar(c.Request.Context())
		if err != nil {
			fail(c, err, http.StatusConflict, nil)
			return
		}
		success(c, rows)
	}
}

func StarsWithManyPlanetsHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := repo.StarsWithManyPlanets(c.Request.Context())
		if err != nil {
			fail(c, err, http.StatusConflict, nil)
			return
		}
		success(c, rows)
	}
}

func BiologicallyRichPlanetsHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := repo.BiologicallyRichPlanets(c.Request.Context())
		if err != nil {
			fail(c, err, http.StatusConflict, nil)
			return
		}
		success(c, rows)
	}
}

func PlanetsWithAllLifeformTypesHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := repo.PlanetsWithAllLifeformTypes(c.Request.Context())
		if err != nil {
			fail(c, err, http.StatusConflict, nil)
			return
		}
		success(c, rows)
	}
}

// GET /:entity?_sort=-Radius&_limit=10&_offset=0&Radius__gte=1000
// Неизвестная сущность или сбой чтения — пустой список, не ошибка.
func ReadAllHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		lp := query.ParseListParams(c.Request.URL.Query())
		success(c, repo.ReadAll(c.Request.Context(), c.Param("entity"), lp))
	}
}

// POST /project-lifeforms {attributes:[...]}
func ProjectLifeformsHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectReq
		if errs := bindJSON(c, &req); len(errs) > 0 {
			badRequest(c, "Missing or invalid parameters", errs)
			return
		}
		attrs := make([]string, 0, len(req.Attributes))
		for _, a := range req.Attributes {
			if a = strings.TrimSpace(a); a != "" {
				attrs = append(attrs, a)
			}
		}
		rows, err := repo.Project(c.Request.Context(), "LifeForms", attrs)
		if err != nil {
			fail(c, err, http.StatusConflict, nil)
			return
		}
		if len(rows) == 0 {
			notFound(c, "Life form not found")
			return
		}
		success(c, rows)
	}
}

// POST /select-star {conditions:[...]}
func SelectStarHandler(repo Repository) gin.HandlerFunc {
	return selectHandler(repo, func(*gin.Context) string { return "Star" }, "Star not found")
}

// POST /select/:entity {conditions:[...]}; пустой результат — 200 с []
func SelectHandler(repo Repository) gin.HandlerFunc {
	return selectHandler(repo, func(c *gin.Context) string { return c.Param("entity") }, "")
}

func selectHandler(repo Repository, entity func(*gin.Context) string, emptyMsg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req selectReq
		if errs := bindJSON(c, &req); len(errs) > 0 {
			badRequest(c, "Missing or invalid parameters", errs)
			return
		}
		if len(req.Send) > 0 && string(req.Send) != "null" {
			badRequest(c, "Raw SQL is not accepted; send structured conditions instead", nil)
			return
		}
		f := query.Filter{Conditions: make([]query.Condition, 0, len(req.Conditions))}
		for _, cond := range req.Conditions {
			f.Conditions = append(f.Conditions, query.Condition{
				Attribute:   cond.Attribute,
				Operator:    cond.Operator,
				Value:       cond.Value,
				Conjunction: cond.Conjunction,
			})
		}
		rows, err := repo.Select(c.Request.Context(), entity(c), f)
		if err != nil {
			fail(c, err, http.StatusConflict, nil)
			return
		}
		if len(rows) == 0 && emptyMsg != "" {
			notFound(c, emptyMsg)
			return
		}
		success(c, rows)
	}
}

// GET /check-db-connection — текстовый ответ, как ждёт клиент
func CheckDBConnectionHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Ping(c.Request.Context()); err != nil {
			logger(c).Warn("database ping failed", zap.Error(err))
			c.String(http.StatusOK, "unable to connect")
			return
		}
		c.String(http.StatusOK, "connected")
	}
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
