package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/gin-gonic/gin"
)

func listUtilisateursHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := models.GetAllUtilisateurs(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func getUtilisateurHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		user, err := models.GetUtilisateur(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func createUtilisateurHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUtilisateur
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		if input.Role != 0 && (input.Role < models.RoleAdmin || input.Role > models.RoleUser) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role invalide"})
			return
		}

		user, err := models.CreateUtilisateur(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}
