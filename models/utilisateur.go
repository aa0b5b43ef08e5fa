package models

import (
	"context"
	"errors"
	"html"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/config"
	"github.com/Mihary-Mandresy/cloud-s5-back/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

type Utilisateur struct {
	ID                   int        `gorm:"primary_key" json:"id"`
	Email                string     `gorm:"size:255;not null;unique" json:"email" binding:"required"`
	MotDePasse           string     `gorm:"size:255;not null" json:"-"`
	Nom                  string     `gorm:"size:100" json:"nom"`
	Role                 int        `gorm:"not null;default:3" json:"role"`
	DateInscription      time.Time  `gorm:"autoCreateTime" json:"date_inscription"`
	EstBloque            bool       `gorm:"not null;default:false" json:"est_bloque"`
	TentativesConnexion  int        `gorm:"not null;default:0" json:"tentatives_connexion"`
	DerniereTentative    *time.Time `json:"derniere_tentative"`
	FirebaseUid          *string    `gorm:"size:128;unique" json:"firebase_uid"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Utilisateur) TableName() string { return "utilisateurs" }

type NewUtilisateur struct {
	Email      string `json:"email" binding:"required,email"`
	MotDePasse string `json:"mot_de_passe" binding:"required,min=4"`
	Nom        string `json:"nom"`
	Role       int    `json:"role"`
}

type UpdateProfilInput struct {
	Email      *string `json:"email"`
	MotDePasse *string `json:"mot_de_passe"`
	Nom        *string `json:"nom"`
}

type LoginInfo struct {
	Token string       `json:"token"`
	User  *Utilisateur `json:"utilisateur"`
}

func maxLoginAttempts() int {
	if v, err := strconv.Atoi(os.Getenv("AUTH_MAX_ATTEMPTS")); err == nil && v > 0 {
		return v
	}
	return 5
}

func blockDuration() time.Duration {
	minutes := 15
	if v, err := strconv.Atoi(os.Getenv("AUTH_BLOCK_MINUTES")); err == nil && v > 0 {
		minutes = v
	}
	return time.Duration(minutes) * time.Minute
}

// Login checks credentials with account and IP level throttling.
// Failed attempts increment the per-account counter; reaching the limit
// blocks the account for AUTH_BLOCK_MINUTES. Every attempt is recorded in
// tentatives_connexion for the IP window check.
func Login(ctx context.Context, email string, password string, ip string) (*LoginInfo, error) {
	db := config.GetDB()

	blocked, err := IPBlocked(ctx, ip)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, utils.ErrorTooManyAttempts
	}

	var user Utilisateur
	if err := db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).Take(&user).Error; err != nil {
		_ = RecordTentative(ctx, email, ip, false)
		return nil, utils.ErrorInvalidCredentials
	}

	if user.EstBloque {
		if user.DerniereTentative != nil && time.Since(*user.DerniereTentative) < blockDuration() {
			_ = RecordTentative(ctx, email, ip, false)
			return nil, utils.ErrorAccountBlocked
		}
		// block expired, reset before checking the password
		user.EstBloque = false
		user.TentativesConnexion = 0
	}

	if cmpErr := utils.ComparePassword(user.MotDePasse, password); cmpErr != nil {
		if !errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, cmpErr
		}
		now := time.Now()
		user.TentativesConnexion++
		user.DerniereTentative = &now

		if user.TentativesConnexion >= maxLoginAttempts() {
			user.EstBloque = true
			if err := db.WithContext(ctx).Save(&user).Error; err != nil {
				return nil, err
			}
			_ = RecordTentative(ctx, email, ip, false)
			return nil, utils.ErrorAccountBlocked
		}

		if err := db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, err
		}
		_ = RecordTentative(ctx, email, ip, false)
		return nil, utils.ErrorInvalidCredentials
	}

	user.TentativesConnexion = 0
	user.EstBloque = false
	if err := db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}

	_ = RecordTentative(ctx, email, ip, true)
	_ = ResetTentativesIP(ctx, ip)

	token, err := utils.JwtGenerate(user.ID, user.Role, user.Email)
	if err != nil {
		return nil, err
	}

	user.MotDePasse = ""
	return &LoginInfo{Token: token, User: &user}, nil
}

func CreateUtilisateur(ctx context.Context, input *NewUtilisateur) (*Utilisateur, error) {
	db := config.GetDB()

	email := utils.NormalizeEmail(input.Email)
	if !utils.IsValidEmail(email) {
		return nil, errors.New("adresse email invalide")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Utilisateur{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("email deja utilise")
	}

	hashed, err := utils.HashPassword(input.MotDePasse)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == 0 {
		role = RoleUser
	}

	user := Utilisateur{
		Email:      email,
		MotDePasse: string(hashed),
		Nom:        html.EscapeString(strings.TrimSpace(input.Nom)),
		Role:       role,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		// unique index race with a concurrent insert
		if isDuplicateKeyErr(err) {
			return nil, errors.New("email deja utilise")
		}
		return nil, err
	}
	user.MotDePasse = ""
	return &user, nil
}

func GetUtilisateur(ctx context.Context, id int) (*Utilisateur, error) {
	db := config.GetDB()
	var result Utilisateur
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	result.MotDePasse = ""
	return &result, nil
}

func GetAllUtilisateurs(ctx context.Context) ([]*Utilisateur, error) {
	db := config.GetDB()
	var results []*Utilisateur
	if err := db.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	for _, u := range results {
		u.MotDePasse = ""
	}
	return results, nil
}

func UpdateProfil(ctx context.Context, id int, input *UpdateProfilInput) (*Utilisateur, error) {
	db := config.GetDB()

	var user Utilisateur
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{}
	if input.Email != nil {
		email := utils.NormalizeEmail(*input.Email)
		if !utils.IsValidEmail(email) {
			return nil, errors.New("adresse email invalide")
		}
		var count int64
		if err := db.WithContext(ctx).Model(&Utilisateur{}).
			Where("email = ?", email).Not("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("email deja utilise")
		}
		updates["email"] = email
	}
	if input.MotDePasse != nil {
		hashed, err := utils.HashPassword(*input.MotDePasse)
		if err != nil {
			return nil, err
		}
		updates["mot_de_passe"] = string(hashed)
	}
	if input.Nom != nil {
		updates["nom"] = html.EscapeString(strings.TrimSpace(*input.Nom))
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	user.MotDePasse = ""
	return &user, nil
}

// Logout revokes the current bearer token until it would have expired anyway.
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	roleId, _ := utils.GetRoleIdFromContext(ctx)
	if err := config.SetRedisValue("RevokedToken:"+token, "1", utils.TokenLifespan(roleId)); err != nil {
		return false, err
	}
	return true, nil
}
