package main

import (
	"net/http"
	"strconv"

	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/gin-gonic/gin"
)

func listEntreprisesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entreprises, err := models.GetEntreprises(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, entreprises)
	}
}

func getEntrepriseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		entreprise, err := models.GetEntreprise(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, entreprise)
	}
}

func createEntrepriseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewEntreprise
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		entreprise, err := models.CreateEntreprise(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, entreprise)
	}
}

func listRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := models.GetRoles(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, roles)
	}
}

func getRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		role, err := models.GetRole(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, role)
	}
}
