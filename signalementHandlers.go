package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/gin-gonic/gin"
)

func listSignalementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := &models.SignalementFilter{
			Search: c.Query("q"),
		}
		if v := c.Query("statut"); v != "" {
			statut, err := strconv.Atoi(v)
			if err != nil || statut < models.StatutNouveau || statut > models.StatutTermine {
				c.JSON(http.StatusBadRequest, gin.H{"error": "statut invalide"})
				return
			}
			filter.Statut = &statut
		}
		filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

		page, err := models.GetSignalements(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func getSignalementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		signalement, err := models.GetSignalement(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, signalement)
	}
}

func getSignalementHistoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		if _, err := models.GetSignalement(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		histo, err := models.GetHistoSignalement(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, histo)
	}
}

func createSignalementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSignalement
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		if input.UtilisateurID == nil {
			if userId, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
				input.UtilisateurID = &userId
			}
		}

		signalement, err := models.CreateSignalement(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, signalement)
	}
}

func updateSignalementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}

		var input models.UpdateSignalementInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		signalement, err := models.UpdateSignalement(c.Request.Context(), id, &input)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrorRecordNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, utils.ErrorInvalidStatut), errors.Is(err, utils.ErrorInvalidAvancement):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, signalement)
	}
}

func deleteSignalementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		if err := models.DeleteSignalement(c.Request.Context(), id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func getSignalementStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := models.GetSignalementStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
