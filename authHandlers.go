package main

import (
	"errors"
	"net/http"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email      string `json:"email" binding:"required"`
	MotDePasse string `json:"mot_de_passe" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email et mot_de_passe sont requis"})
			return
		}

		info, err := models.Login(c.Request.Context(), req.Email, req.MotDePasse, c.ClientIP())
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrorAccountBlocked):
				c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			case errors.Is(err, utils.ErrorTooManyAttempts):
				c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			case errors.Is(err, utils.ErrorInvalidCredentials):
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			default:
				config.LogError(logger, "authHandlers.go", "loginHandler", "models.Login", req.Email, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur interne"})
			}
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUtilisateur
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		// self-registration never grants elevated roles
		input.Role = models.RoleUser

		user, err := models.CreateUtilisateur(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

func profilHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifie"})
			return
		}
		user, err := models.GetUtilisateur(c.Request.Context(), userId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func updateProfilHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifie"})
			return
		}

		var input models.UpdateProfilInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := models.UpdateProfil(c.Request.Context(), userId, &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
