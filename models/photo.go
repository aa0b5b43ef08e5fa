package models

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	"github.com/disintegration/imaging"
)

type Photo struct {
	ID            int       `gorm:"primary_key" json:"id"`
	SignalementID int       `gorm:"not null;index" json:"signalement_id"`
	Url           string    `gorm:"size:500;not null" json:"url"`
	ThumbnailUrl  string    `gorm:"size:500" json:"thumbnail_url"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Photo) TableName() string { return "photos" }

const thumbnailWidth = 320

// AddPhoto uploads the original and a resized thumbnail to GCS, then records
// both URLs against the report.
func AddPhoto(ctx context.Context, signalementId int, filename string, data []byte) (*Photo, error) {
	db := config.GetDB()

	var signalement Signalement
	if err := db.WithContext(ctx).First(&signalement, signalementId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	objectName := fmt.Sprintf("signalements/%d/%s", signalementId, utils.GenerateUniqueFilename(filename))
	url, err := utils.UploadObjectToGCS(ctx, objectName, data)
	if err != nil {
		return nil, err
	}

	thumbnailUrl := ""
	if thumb, thumbErr := makeThumbnail(data); thumbErr == nil {
		thumbnailUrl, err = utils.UploadObjectToGCS(ctx, objectName+"_thumb.jpg", thumb)
		if err != nil {
			return nil, err
		}
	}

	photo := Photo{
		SignalementID: signalementId,
		Url:           url,
		ThumbnailUrl:  thumbnailUrl,
	}
	if err := db.WithContext(ctx).Create(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func makeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func GetPhotos(ctx context.Context, signalementId int) ([]*Photo, error) {
	db := config.GetDB()
	var results []*Photo
	err := db.WithContext(ctx).
		Where("signalement_id = ?", signalementId).
		Order("created_at asc").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func DeletePhoto(ctx context.Context, id int) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Delete(&Photo{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
