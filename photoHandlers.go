package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 10 << 20 // 10 MB

func uploadPhotoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}

		file, header, err := c.Request.FormFile("photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "le champ photo est requis"})
			return
		}
		defer file.Close()

		if header.Size > maxPhotoSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo trop volumineuse (10 Mo max)"})
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(data) > maxPhotoSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo trop volumineuse (10 Mo max)"})
			return
		}

		photo, err := models.AddPhoto(c.Request.Context(), id, header.Filename, data)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, photo)
	}
}

func listPhotosHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		photos, err := models.GetPhotos(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, photos)
	}
}

func deletePhotoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id invalide"})
			return
		}
		if err := models.DeletePhoto(c.Request.Context(), id); err != nil {
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
